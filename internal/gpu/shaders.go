package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/grid.wgsl
var gridShaderSource string

// GridShaderSource returns the WGSL source of every grid layer.
func GridShaderSource() string {
	return gridShaderSource
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile shader: SPIR-V length %d not word aligned", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// gridShaderModuleSource returns the shader source handed to the device.
func gridShaderModuleSource(spirv bool) (hal.ShaderSource, error) {
	if gridShaderSource == "" {
		return hal.ShaderSource{}, errors.New("grid shader source is empty")
	}
	if !spirv {
		return hal.ShaderSource{WGSL: gridShaderSource}, nil
	}
	code, err := compileSPIRV(gridShaderSource)
	if err != nil {
		return hal.ShaderSource{}, err
	}
	return hal.ShaderSource{SPIRV: code}, nil
}
