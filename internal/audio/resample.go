package audio

import "math"

// Resample 线性插值重采样（交织多声道），实时语音足够用
//
//	ratio = inputRate / outputRate
//	position = outputIndex * ratio
//	output[i] = input[p] * (1 - frac) + input[p+1] * frac
func Resample(input []int16, inputRate, outputRate, channels int) []int16 {
	if inputRate <= 0 || outputRate <= 0 || channels <= 0 || len(input) == 0 {
		return nil
	}
	if inputRate == outputRate {
		out := make([]int16, len(input))
		copy(out, input)
		return out
	}

	inputFrames := len(input) / channels
	if inputFrames == 0 {
		return nil
	}
	ratio := float64(inputRate) / float64(outputRate)
	outputFrames := int(math.Ceil(float64(inputFrames) / ratio))
	output := make([]int16, outputFrames*channels)

	for outFrame := 0; outFrame < outputFrames; outFrame++ {
		position := float64(outFrame) * ratio
		inFrame := int(position)
		frac := position - float64(inFrame)
		if inFrame >= inputFrames-1 {
			inFrame = max(inputFrames-2, 0)
			frac = 1.0
		}

		for ch := 0; ch < channels; ch++ {
			i1 := inFrame*channels + ch
			i2 := (inFrame+1)*channels + ch
			if i2 >= len(input) {
				i2 = i1
			}
			v := float64(input[i1])*(1.0-frac) + float64(input[i2])*frac
			output[outFrame*channels+ch] = int16(max(-32768, min(32767, v)))
		}
	}
	return output
}

// Framer cuts an arbitrary stream of samples into fixed-size frames,
// carrying the remainder over to the next Write.
type Framer struct {
	frameSamples int
	sampleRate   int
	channels     int
	carry        []int16
}

func NewFramer(sampleRate, channels, frameMs int) *Framer {
	return &Framer{
		frameSamples: sampleRate * frameMs / 1000 * channels,
		sampleRate:   sampleRate,
		channels:     channels,
	}
}

// Write appends samples and calls emit once per complete frame.
func (f *Framer) Write(samples []int16, emit func(Frame)) {
	f.carry = append(f.carry, samples...)
	for len(f.carry) >= f.frameSamples {
		emit(Frame{
			Data:       PCMBytes(f.carry[:f.frameSamples]),
			SampleRate: f.sampleRate,
			Channels:   f.channels,
		})
		f.carry = f.carry[f.frameSamples:]
	}
	if len(f.carry) == 0 {
		f.carry = f.carry[:0:0]
	}
}

// Pending reports how many samples wait for the next frame.
func (f *Framer) Pending() int {
	return len(f.carry)
}
