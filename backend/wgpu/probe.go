// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// markerShaderWGSL bumps one counter per invocation. It is only compiled
// and loaded to verify the device accepts compute modules.
const markerShaderWGSL = `
@group(0) @binding(0) var<storage, read_write> counters: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.x;
    if (i < arrayLength(&counters)) {
        counters[i] = counters[i] + 1u;
    }
}
`

// compileMarker compiles the marker shader to SPIR-V words.
func compileMarker() ([]uint32, error) {
	spirvBytes, err := naga.Compile(markerShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("compile marker shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile marker shader: SPIR-V length %d not word aligned", len(spirvBytes))
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// probeCompute loads the marker shader on the device. Caller holds mu.
func (d *Device) probeCompute() error {
	words, err := compileMarker()
	if err != nil {
		return err
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "overlap_marker",
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return fmt.Errorf("create marker module: %w", err)
	}
	d.device.DestroyShaderModule(module)
	return nil
}
