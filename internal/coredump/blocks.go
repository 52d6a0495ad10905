// Package coredump implements the coredump TLV writer/reader: a fixed
// header (magic/version/total_size) followed by a stream of typed,
// length-prefixed memory and metadata blocks, a footer marking
// truncation, and a packetizer-facing data source over the whole thing.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/panics/src/ticos_coredump.c.
package coredump

// RegionType classifies a region supplied by the caller before it is
// translated into a wire BlockType. A region with CachedMemory type carries
// an explicit CachedBlock describing where the cached bytes actually live
// on the target, rather than the original's "reinterpret region_start as a
// header struct" trick, which has no safe Go equivalent.
type RegionType uint8

const (
	RegionTypeMemory RegionType = iota
	RegionTypeMemoryWordAccessOnly
	RegionTypeCachedMemory
	RegionTypeArmV6orV7Mpu
	RegionTypeArmV6orV7MpuUnrolled
	RegionTypeImageIdentifier
)

// BlockType tags each TLV block on the wire.
type BlockType uint8

const (
	BlockTypeCurrentRegisters BlockType = iota
	BlockTypeMemoryRegion
	BlockTypeTraceReason
	BlockTypeDeviceSerial
	BlockTypeSoftwareVersion
	BlockTypeSoftwareType
	BlockTypeHardwareVersion
	BlockTypeBuildID
	BlockTypeMachineType
	BlockTypePaddingRegion
	BlockTypeArmV6orV7Mpu
)

// regionToBlockType collapses the region taxonomy into the block types
// actually written to storage, mirroring prv_region_type_to_storage_type:
// everything except an unrolled MPU region is just "a memory region".
func regionToBlockType(t RegionType) BlockType {
	switch t {
	case RegionTypeArmV6orV7MpuUnrolled:
		return BlockTypeArmV6orV7Mpu
	default:
		return BlockTypeMemoryRegion
	}
}

// footerFlagSaveTruncated marks a coredump whose region writes ran out of
// storage and were truncated to fit.
const footerFlagSaveTruncated = 1 << 0

// CachedBlock describes a cached-memory region fixup: the cache was valid
// at capture time, and Data is the cached copy that should be attributed
// to CachedAddress in the resulting coredump rather than the cache's own
// address.
type CachedBlock struct {
	Valid         bool
	CachedAddress uint32
	Data          []byte
}

// Region is one chunk of data to include in a coredump.
type Region struct {
	Type RegionType
	// Address is the address this region's data should be attributed to
	// in the coredump. Ignored for non-memory region types.
	Address uint32
	Data    []byte
	// Cached, when Type is RegionTypeCachedMemory, supplies the fixup
	// described by CachedBlock. A region with an invalid (stale) cache is
	// skipped entirely, matching prv_fixup_if_cached_block.
	Cached *CachedBlock
}

// fixupIfCached resolves a CachedMemory region into a plain Memory region
// addressed at its CachedAddress, or reports ok=false if the cache was
// invalid and the region must be skipped.
func fixupIfCached(r Region) (Region, bool) {
	if r.Type != RegionTypeCachedMemory {
		return r, true
	}
	if r.Cached == nil || !r.Cached.Valid {
		return Region{}, false
	}
	r.Type = RegionTypeMemory
	r.Address = r.Cached.CachedAddress
	r.Data = r.Cached.Data
	return r, true
}
