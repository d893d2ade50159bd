// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 converts a sample in [-1, 1] to 16-bit PCM, clamping out of
// range input.
func Float32ToInt16(x float32) int16 {
	x = min(max(x, -1), 1)
	return int16(x * 32767)
}

// Int16ToFloat32 converts 16-bit PCM to a sample in [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768
}
