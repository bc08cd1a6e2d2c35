// Package speech reads chat messages aloud.
//
// CommandSpeaker shells out to a TTS program such as espeak-ng. The voice is
// chosen from the message language: Spanish uses es-ES and anything without
// a configured voice falls back to en-US.
package speech
