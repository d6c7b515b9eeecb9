// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides kind-typed tensors for the Born module system.
//
// # Overview
//
// A tensor is typed by its element kind and by the backend it lives on:
//   - Tensor[FloatKind, B]: floating-point values in B's float precision
//   - Tensor[IntKind, B]: integers in B's integer precision
//   - Tensor[BoolKind, B]: booleans
//
// The storage data type follows from the pair. The same float tensor is
// float16 on a half-precision backend and float32 on the default CPU backend.
//
// # Precision bridges
//
// A backend may declare a full-precision counterpart through
// FullPrecisionBackend. The Bridge it returns converts float tensors between
// the two while preserving shape and device:
//
//	host := cpu.NewHalf()
//	br := host.FullPrecisionBridge()
//	wide, _ := br.IntoFullPrecision(x)   // float16 -> float32
//	narrow, _ := br.FromFullPrecision(wide)
//
// Narrowing saturates to infinity unless the bridge is strict, in which case
// it reports ErrPrecisionOverflow.
package tensor
