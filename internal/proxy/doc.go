// Package proxy synthesizes a standard loopable video clip from a scene so a
// plain video player can display it. The synthesizer approximates the scene's
// motion with ffmpeg filters, tunes quality to the hardware, and searches the
// result for a seamless loop point.
package proxy
