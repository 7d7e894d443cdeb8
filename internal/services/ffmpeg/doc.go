// Package ffmpeg wraps the ffmpeg command line for proxy synthesis: encoding
// a scene's base media into a loopable proxy clip and sampling frames for
// loop-point analysis. Progress is streamed from ffmpeg's -progress pipe.
package ffmpeg
