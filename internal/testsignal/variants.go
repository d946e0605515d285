package testsignal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

const (
	VariantMultisineV1    = "multisine_v1"
	VariantChirpSweepV1   = "chirp_sweep_v1"
	VariantImpulseTrainV1 = "impulse_train_v1"
	VariantSpeechLikeV1   = "speech_like_v1"
)

const variantSampleRate = 44100

var signalVariants = []string{
	VariantMultisineV1,
	VariantChirpSweepV1,
	VariantImpulseTrainV1,
	VariantSpeechLikeV1,
}

func SignalVariants() []string {
	out := make([]string, len(signalVariants))
	copy(out, signalVariants)
	return out
}

// GenerateSignalVariant renders a mono 44.1 kHz test signal quantized to
// bits-per-sample signed integers.
func GenerateSignalVariant(variant string, samples, bits int) ([]int32, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("invalid sample count: %d", samples)
	}
	if bits < 4 || bits > 32 {
		return nil, fmt.Errorf("invalid bits per sample: %d", bits)
	}

	var signal []float64
	switch variant {
	case VariantMultisineV1:
		signal = generateMultisine(samples)
	case VariantChirpSweepV1:
		signal = generateChirpSweep(samples)
	case VariantImpulseTrainV1:
		signal = generateImpulseTrain(samples)
	case VariantSpeechLikeV1:
		signal = generateSpeechLike(samples)
	default:
		return nil, fmt.Errorf("unknown signal variant %q", variant)
	}
	return quantize(signal, bits), nil
}

func HashInt32LE(samples []int32) string {
	h := sha256.New()
	var b [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(b[:], uint32(s))
		_, _ = h.Write(b[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func quantize(signal []float64, bits int) []int32 {
	full := math.Ldexp(1, bits-1) - 1
	out := make([]int32, len(signal))
	for i, v := range signal {
		out[i] = int32(math.Round(clipSample(v) * full))
	}
	return out
}

func generateMultisine(samples int) []float64 {
	signal := make([]float64, samples)
	freqs := []float64{440, 1000, 2000}
	modFreqs := []float64{1.3, 2.7, 0.9}
	amp := 0.3
	onsetSamples := secondsToSamples(0.010)
	for i := range signal {
		t := float64(i) / variantSampleRate
		var val float64
		for fi, freq := range freqs {
			modDepth := 0.5 + 0.5*math.Sin(2*math.Pi*modFreqs[fi]*t)
			val += amp * modDepth * math.Sin(2*math.Pi*freq*t)
		}
		if i < onsetSamples {
			frac := float64(i) / float64(onsetSamples)
			val *= frac * frac * frac
		}
		signal[i] = val
	}
	return signal
}

func generateChirpSweep(samples int) []float64 {
	signal := make([]float64, samples)
	duration := float64(samples) / variantSampleRate
	f0 := 60.0
	f1 := 12000.0
	k := math.Log(f1/f0) / duration
	for i := range signal {
		t := float64(i) / variantSampleRate
		phase := 2 * math.Pi * f0 * (math.Exp(k*t) - 1) / k
		env := 0.2 + 0.8*(0.5+0.5*math.Sin(2*math.Pi*0.41*t))
		signal[i] = 0.85 * env * math.Sin(phase)
	}
	return signal
}

func generateImpulseTrain(samples int) []float64 {
	signal := make([]float64, samples)
	period := secondsToSamples(0.035)
	decayT := 0.0035 * variantSampleRate
	ringLen := secondsToSamples(0.015)
	for i := range signal {
		t := float64(i) / variantSampleRate
		pos := i % period
		val := 0.0
		if pos == 0 {
			val = 0.92
		}
		if pos < ringLen {
			val += 0.75 * math.Exp(-float64(pos)/decayT) * math.Sin(2*math.Pi*540*float64(pos)/variantSampleRate)
		}
		val += 0.02 * DeterministicNoise(i, 17)
		env := 0.6 + 0.4*math.Sin(2*math.Pi*0.19*t)
		signal[i] = val * env
	}
	return signal
}

func generateSpeechLike(samples int) []float64 {
	signal := make([]float64, samples)
	var phase, prevNoise float64
	for i := range signal {
		t := float64(i) / variantSampleRate

		pitchHz := 95.0 + 28.0*math.Sin(2*math.Pi*0.63*t) + 16.0*math.Sin(2*math.Pi*0.17*t)
		phase += 2 * math.Pi * pitchHz / variantSampleRate
		if phase > 2*math.Pi {
			phase -= 2 * math.Pi
		}
		voiced := math.Sin(phase) + 0.35*math.Sin(2*phase) + 0.2*math.Sin(3*phase)

		voicing := 0.5 + 0.5*math.Sin(2*math.Pi*0.78*t+0.25)
		syllable := 0.25 + 0.75*math.Pow(0.5+0.5*math.Sin(2*math.Pi*3.2*t), 2)

		noise := DeterministicNoise(i, 71)
		high := noise - 0.86*prevNoise
		prevNoise = noise
		mix := voicing*voiced + (1.0-voicing)*(0.38*high+0.22*math.Sin(2*math.Pi*3200*t))

		signal[i] = 0.82 * syllable * mix
	}
	return signal
}

// DeterministicNoise returns a xorshift value in [-1, 1] for the index/salt pair.
func DeterministicNoise(idx, salt int) float64 {
	x := uint32(idx)*1664525 + uint32(salt)*2246822519
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return float64(int32(x)) / 2147483647.0
}

func secondsToSamples(sec float64) int {
	return int(sec * variantSampleRate)
}

func clipSample(v float64) float64 {
	if v > 0.98 {
		return 0.98
	}
	if v < -0.98 {
		return -0.98
	}
	return v
}
