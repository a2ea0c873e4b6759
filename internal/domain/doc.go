// Package domain derives the fire index from geostationary infrared bands
// and composes it with visible bands into RGB composites.
//
// # Input Conventions
//
// Scenes come from GOES/MTG-class imagers. Infrared bands are brightness
// temperatures in Kelvin; visible bands are percent reflectance.
//
//	IR_112  ~10.5 µm  surface temperature proxy ("thermal")
//	IR_039  ~3.9 µm   responds strongly to very hot targets ("hot")
//	VIS_xxx           reflectance, 0..100 (VIS_016 saturates near 75)
//
// Missing samples are NaN in memory and null in scene files.
//
// # Band Preparation
//
// Both IR bands are mapped onto [1, 65535] before the ratio:
//
//	thermal: 65535 * (K - 183.15) / 150          linear, 183.15 K .. 333.15 K
//	hot:     65535 * ((K - 273.15) / 60) ^ 2.5   power law, 273.15 K .. 333.15 K
//
// The floor of 1 keeps the ratio denominator non-zero. Hot samples below
// 273.15 K have no real 2.5 power and take the floor value; so do NaN hot
// samples. NaN thermal samples are undefined.
//
// # Fire Index
//
//	ratio  = -(thermal - hot) / (thermal + hot)    fire pixels score high
//	norm   = (ratio - min) / (max - min)           over the whole scene
//	index  = trunc(norm ^ (1/gamma) * 65535)       or * 255 for 8-bit
//
// min and max are taken over defined pixels of the full scene, so tiling
// a scene changes its output unless the caller fixes the extrema (see
// [ComputeExtrema] and [ApplyIndexMapping]). A scene whose ratio is
// constant has an empty range; its index is zero everywhere. Undefined
// pixels are always written as 0.
//
// # Composites
//
//	day:    R = index, G = VIS_008, B = VIS_004
//	night:  R = index, G = VIS_022, B = VIS_016
//
// Every channel uses the requested bit depth.
package domain
