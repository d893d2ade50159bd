// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes integer PCM AIFF files into audio.Sources using
// github.com/go-audio/aiff. Readers that cannot seek are buffered in memory.
package aiff
