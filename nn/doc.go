// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the module system of the Born ML framework.
//
// # Overview
//
// A model is a tree of modules whose leaves are parameters. Every module
// supports the same protocol:
//   - CollectDevices: the devices its parameters live on
//   - Fork and ToDevice: copies on another device
//   - Visit and Map: depth-first traversal over parameters
//   - IntoRecord and LoadRecord: persistence
//
// Modules are values. Operations that change parameters return a new module.
//
// # Mixed precision
//
// FullPrecisionAdaptor runs a module written for a backend's full-precision
// counterpart inside a network of the lower-precision backend:
//
//	host := cpu.NewHalf()
//	master, _ := nn.NewLinear(784, 128, cpu.New())       // float32 weights
//	layer, _ := nn.Adapt[*cpu.Half, *cpu.Backend](host, master)
//	model := nn.NewSequential[*cpu.Half](layer, head)    // float16 network
//
// Visitors and mappers see float16 copies of the float32 weights and every
// mapped value is widened back before it is stored. Parameter identities,
// shapes and devices are never changed by the adaptor, and the saved record
// is the same as that of the unwrapped module.
//
// # Persistence
//
//	err := nn.Save("model.born", model, record.NewFileRecorder(), record.HalfPrecision)
//	loaded, err := nn.Load("model.born", model, record.NewFileRecorder(), tensor.DefaultCPU)
package nn
