// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU backends of the Born module system.
//
// Three backends differ only in storage precision:
//
//	Half     float16 / int16
//	Backend  float32 / int32 (the default)
//	Double   float64 / int64
//
// Each names the next one as its full-precision counterpart, so a module
// built on Backend can run inside a Half network through nn.Adapt.
//
// Example:
//
//	host := cpu.NewHalf()
//	inner, _ := nn.NewLinear(784, 128, cpu.New())
//	layer, _ := nn.Adapt[*cpu.Half, *cpu.Backend](host, inner)
package cpu
