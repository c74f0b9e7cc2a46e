// Package convergence estimates the reliability of simulation time series
// by block averaging, decorrelation scans and equilibration gating.
package convergence

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goconverge/timeseries"
)

// Partition describes how a series of a given length is cut into blocks.
type Partition struct {
	BlockSize int
	Length    int  // usable length after the partial-block decision
	Remainder int  // samples past the last full block of the whole series
	Truncated bool // whether the remainder was cut from the usable length
	Blocks    int  // number of full blocks
}

// PartitionBlocks cuts n samples into blocks of blockSize. When the trailing
// partial block is smaller than partialBlockCutoff of a full block
// (remainder/blockSize < cutoff, strictly), the usable length is shortened
// by the remainder. Only full blocks are ever counted.
func PartitionBlocks(n, blockSize int, partialBlockCutoff float64) (Partition, error) {
	if n < 1 {
		return Partition{}, domainErrorf("series is empty")
	}
	if blockSize < 1 || blockSize > n {
		return Partition{}, domainErrorf("block size %d outside [1, %d]", blockSize, n)
	}
	if !(partialBlockCutoff >= 0 && partialBlockCutoff <= 1) {
		return Partition{}, domainErrorf("partial block cutoff %v outside [0, 1]", partialBlockCutoff)
	}

	p := Partition{
		BlockSize: blockSize,
		Length:    n,
		Remainder: n % blockSize,
	}
	if p.Remainder > 0 && float64(p.Remainder)/float64(blockSize) < partialBlockCutoff {
		p.Length -= p.Remainder
		p.Truncated = true
	}
	p.Blocks = p.Length / blockSize
	if p.Blocks == 0 {
		return Partition{}, domainErrorf("block size %d leaves no full block", blockSize)
	}
	return p, nil
}

// BlockStandardError returns the standard error of the mean estimated from
// the means of contiguous blocks of blockSize samples: the population
// standard deviation of the block means divided by sqrt(M).
func BlockStandardError(series *timeseries.Series, blockSize int, partialBlockCutoff float64) (float64, error) {
	p, err := PartitionBlocks(series.Len(), blockSize, partialBlockCutoff)
	if err != nil {
		return 0, err
	}
	return blockStandardError(series.Values, p), nil
}

func blockStandardError(values []float64, p Partition) float64 {
	means := make([]float64, p.Blocks)
	for i := range means {
		start := i * p.BlockSize
		means[i] = stat.Mean(values[start:start+p.BlockSize], nil)
	}

	_, variance := stat.PopMeanVariance(means, nil)
	// Compensated summation can leave a tiny negative residue for equal means.
	variance = math.Max(variance, 0)

	return stat.StdErr(math.Sqrt(variance), float64(p.Blocks))
}

// ProfilePoint is the block standard error at one block size.
type ProfilePoint struct {
	BlockSize int
	StdErr    float64
}

// Profile is a block-averaging curve ordered by increasing block size.
type Profile []ProfilePoint

// BlockSizes returns the block sizes of the profile.
func (p Profile) BlockSizes() []int {
	sizes := make([]int, len(p))
	for i, pt := range p {
		sizes[i] = pt.BlockSize
	}
	return sizes
}

// StdErrs returns the standard errors of the profile.
func (p Profile) StdErrs() []float64 {
	errs := make([]float64, len(p))
	for i, pt := range p {
		errs[i] = pt.StdErr
	}
	return errs
}

// Last returns the point with the largest block size, or false for an
// empty profile.
func (p Profile) Last() (ProfilePoint, bool) {
	if len(p) == 0 {
		return ProfilePoint{}, false
	}
	return p[len(p)-1], true
}

// BlockAverageProfile computes BlockStandardError for every block size, in
// order. Block sizes must be strictly increasing; the first invalid size
// aborts the whole profile.
func BlockAverageProfile(series *timeseries.Series, blockSizes []int, partialBlockCutoff float64) (Profile, error) {
	profile := make(Profile, 0, len(blockSizes))
	for i, b := range blockSizes {
		if b < 1 {
			return nil, domainErrorf("block size %d at position %d is below 1", b, i)
		}
		if i > 0 && b <= blockSizes[i-1] {
			return nil, domainErrorf("block sizes must be strictly increasing: %d follows %d", b, blockSizes[i-1])
		}
		se, err := BlockStandardError(series, b, partialBlockCutoff)
		if err != nil {
			return nil, err
		}
		profile = append(profile, ProfilePoint{BlockSize: b, StdErr: se})
	}
	return profile, nil
}

// BlockSizeRange returns the block sizes lo, lo+1, ..., hi-1.
func BlockSizeRange(lo, hi int) []int {
	if hi <= lo {
		return []int{}
	}
	sizes := make([]int, 0, hi-lo)
	for b := lo; b < hi; b++ {
		sizes = append(sizes, b)
	}
	return sizes
}

// AverageProfiles returns, for every block size present in any profile, the
// mean standard error over the profiles that contain it.
func AverageProfiles(profiles []Profile) Profile {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, p := range profiles {
		for _, pt := range p {
			sums[pt.BlockSize] += pt.StdErr
			counts[pt.BlockSize]++
		}
	}

	sizes := make([]int, 0, len(sums))
	for b := range sums {
		sizes = append(sizes, b)
	}
	slices.Sort(sizes)

	avg := make(Profile, len(sizes))
	for i, b := range sizes {
		avg[i] = ProfilePoint{BlockSize: b, StdErr: sums[b] / float64(counts[b])}
	}
	return avg
}
