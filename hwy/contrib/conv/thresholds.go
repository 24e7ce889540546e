// Copyright 2025 go-highway Authors
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

package conv

// Thresholds holds the measured shape limits the selector uses to decide
// between strategies. The defaults were tuned on x86 and ARM servers; a
// caller may override them with WithThresholds to re-tune for a machine.
type Thresholds struct {
	// WinogradMinSrcC is the smallest source channel count worth the
	// Winograd transforms.
	WinogradMinSrcC int

	// Winograd1x3MinSrcC is the smallest source channel count for the 1x3
	// kernel, whose transform saves less arithmetic than the others.
	Winograd1x3MinSrcC int

	// WinogradMinSide is the smallest source side for channel-last input;
	// WinogradMinSideChannelFirst is the same for channel-first input.
	WinogradMinSide             int
	WinogradMinSideChannelFirst int

	// WinogradMinArea is the smallest SrcH*SrcW*Batch for channel-last input.
	WinogradMinArea int

	// WinogradRowMinSrcW is the smallest source width for 1xk kernels.
	WinogradRowMinSrcW int

	// WinogradTile4MinSide and WinogradTile4MinArea gate 4x4 output tiles;
	// WinogradTile3MinSide and WinogradTile3MinArea gate 3x3 tiles.
	WinogradTile4MinSide int
	WinogradTile4MinArea int
	WinogradTile3MinSide int
	WinogradTile3MinArea int

	// GemmNTMaxSide bounds both source sides (exclusive) for GemmNT.
	GemmNTMaxSide int

	// DirectChannelFirstMaxRatio bounds SrcC/Group*StrideX^2*StrideY/(KernelX*KernelY)
	// (exclusive) for the channel-first direct strategy.
	DirectChannelFirstMaxRatio float64

	// DirectChannelLastMinBodyW is the least number of output columns,
	// beyond the padded ones, that the channel-last body kernel needs.
	DirectChannelLastMinBodyW int

	// DirectChannelLast1x1MaxSrcC bounds SrcC for pointwise layers.
	DirectChannelLast1x1MaxSrcC int

	// Layers strided in both directions with more than
	// DirectChannelLastStridedMaxSrcC source channels need at least
	// DirectChannelLastStridedMinTaps kernel taps per output step.
	DirectChannelLastStridedMaxSrcC int
	DirectChannelLastStridedMinTaps int

	// DirectChannelLastPadRatio rejects layers whose horizontal padding
	// times this ratio exceeds the source width.
	DirectChannelLastPadRatio int
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WinogradMinSrcC:                 10,
		Winograd1x3MinSrcC:              33,
		WinogradMinSide:                 4,
		WinogradMinSideChannelFirst:     6,
		WinogradMinArea:                 36,
		WinogradRowMinSrcW:              8,
		WinogradTile4MinSide:            8,
		WinogradTile4MinArea:            256,
		WinogradTile3MinSide:            6,
		WinogradTile3MinArea:            144,
		GemmNTMaxSide:                   6,
		DirectChannelFirstMaxRatio:      2.0,
		DirectChannelLastMinBodyW:       6,
		DirectChannelLast1x1MaxSrcC:     512,
		DirectChannelLastStridedMaxSrcC: 32,
		DirectChannelLastStridedMinTaps: 3,
		DirectChannelLastPadRatio:       3,
	}
}
