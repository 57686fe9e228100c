package audio

import (
	"math"
)

// CalculatePSNR compares two normalized signals of equal length.
// Full scale is 1.0; identical signals give +Inf and mismatched lengths give 0.
func CalculatePSNR(original, stego []float64) float64 {
	if len(original) != len(stego) || len(original) == 0 {
		return 0.0
	}

	var mse float64
	for i := range original {
		diff := original[i] - stego[i]
		mse += diff * diff
	}
	mse /= float64(len(original))

	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX / sqrt(MSE))
	return 20 * math.Log10(1.0/math.Sqrt(mse))
}

func ValidatePSNR(psnr float64, threshold float64) bool {
	if math.IsInf(psnr, 1) {
		return true
	}
	return psnr >= threshold
}
