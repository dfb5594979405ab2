// ABOUTME: Audio decoder package for whole-file clip loading
// ABOUTME: Provides MP3, FLAC, WAV and Ogg Vorbis decoders
// Package decode turns audio files into audio.Clip values.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), WAV (go-audio/wav) and
// Ogg Vorbis (jfreymuth/oggvorbis). Every decoder outputs int32 samples
// in 24-bit range.
//
// Example:
//
//	clip, err := decode.File("phrase.flac")
package decode
