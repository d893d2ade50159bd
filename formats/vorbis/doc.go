// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files into audio.Sources using
// github.com/jfreymuth/oggvorbis.
package vorbis
