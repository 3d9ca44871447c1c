// Copyright 2026 The CUDEM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postproc

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/jph6366/cudem-sub000/internal/raster"
)

// gaussianFilter applies a separable Gaussian blur via FFT convolution
// (spec §4.6: "Gaussian (FFT-convolve symmetrically padded)"), row-wise
// then column-wise, restricted to cells with z < SplitValue when set.
func (p *Pipeline) gaussianFilter(ds *raster.Dataset, f FilterSpec) (*raster.Dataset, error) {
	z, nx, ny, err := readWhole(ds)
	if err != nil {
		return nil, err
	}
	kernel := gaussianKernel1D(f.Sigma)
	smoothed := make([]float64, len(z))
	copy(smoothed, z)

	n := len(kernel) / 2
	validOffset := len(kernel) - 1 // full-convolution index where the kernel first fully overlaps the padded signal

	row := make([]float64, nx)
	for r := 0; r < ny; r++ {
		copy(row, smoothed[r*nx:(r+1)*nx])
		out := fftConvolveSame(symmetricPad(row, n), kernel)
		out = out[validOffset : validOffset+nx]
		copy(smoothed[r*nx:(r+1)*nx], out)
	}
	col := make([]float64, ny)
	for c := 0; c < nx; c++ {
		for r := 0; r < ny; r++ {
			col[r] = smoothed[r*nx+c]
		}
		out := fftConvolveSame(symmetricPad(col, n), kernel)
		out = out[validOffset : validOffset+ny]
		for r := 0; r < ny; r++ {
			smoothed[r*nx+c] = out[r]
		}
	}

	result := make([]float64, len(z))
	for i, orig := range z {
		if f.HasSplitValue && orig >= f.SplitValue {
			result[i] = orig
			continue
		}
		result[i] = smoothed[i]
	}
	return writeWhole(p.stagePath("02-gaussian.tif"), p.gridOf(ds), result, p.opts.NodataValue)
}

// gaussianKernel1D builds a normalized 1D Gaussian kernel truncated at
// +/-3 sigma.
func gaussianKernel1D(sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 1
	}
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range k {
		x := float64(i - radius)
		v := math.Exp(-(x * x) / (2 * sigma * sigma))
		k[i] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// symmetricPad reflects signal by n samples on each side (spec's
// "symmetrically padded"), avoiding edge darkening from implicit
// zero-padding.
func symmetricPad(signal []float64, n int) []float64 {
	out := make([]float64, len(signal)+2*n)
	for i := 0; i < n; i++ {
		out[n-1-i] = signal[min(i, len(signal)-1)]
		out[len(out)-n+i] = signal[max(len(signal)-1-i, 0)]
	}
	copy(out[n:n+len(signal)], signal)
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// fftConvolveSame convolves signal with kernel using a real FFT and
// returns the "full" convolution (length len(signal)+len(kernel)-1),
// matching numpy.convolve's default mode before the caller crops back to
// the unpadded window.
func fftConvolveSame(signal, kernel []float64) []float64 {
	n := len(signal) + len(kernel) - 1
	sig := make([]float64, n)
	copy(sig, signal)
	ker := make([]float64, n)
	copy(ker, kernel)

	fft := fourier.NewFFT(n)
	sigC := fft.Coefficients(nil, sig)
	kerC := fft.Coefficients(nil, ker)
	prod := make([]complex128, len(sigC))
	for i := range prod {
		prod[i] = sigC[i] * kerC[i]
	}
	return fft.Sequence(nil, prod)
}
