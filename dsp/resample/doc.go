// Package resample converts audio between sample rates with a rational
// polyphase FIR.
//
// Decoded clips arrive at whatever rate their container declares; the graph
// renders at one context rate. [Audio] converts a whole clip and compensates
// the filter delay so the result lines up with the source. [Converter] is the
// streaming form for a single channel.
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
package resample
