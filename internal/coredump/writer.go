package coredump

import (
	"encoding/binary"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	"github.com/ticos-sdk/go-ticos/internal/protocol"
)

// coredumpMagic/coredumpVersion/coredumpFooterMagic reuse the same
// protocol-wide constants the root package re-exports, rather than
// duplicating the magic numbers locally.
const (
	coredumpMagic       = protocol.CoredumpMagic
	coredumpVersion     = protocol.CoredumpVersion
	coredumpFooterMagic = protocol.CoredumpFooterMagic

	headerSize   = 12 // magic + version + total_size
	blockHdrSize = 12 // block_type(1) + rsvd(3) + address(4) + length(4)
	footerSize   = 16 // magic + flags + rsvd[2]

	wordSize = 4
)

// DeviceInfo supplies the fields the original derives from a platform
// device-info accessor. Every present field is written unconditionally as
// its own block, matching prv_write_device_info_blocks.
type DeviceInfo struct {
	DeviceSerial    string
	SoftwareVersion string
	SoftwareType    string
	HardwareVersion string
	BuildID         []byte
}

// SaveInfo is everything the caller supplies for one coredump capture.
type SaveInfo struct {
	Regs        []byte
	TraceReason uint32
	Regions     []Region
}

// writeCtx tracks the running write offset and truncation/error state
// across a full save pass, mirroring sTcsCoredumpWriteCtx.
type writeCtx struct {
	storage         interfaces.Storage
	offset          int
	computeSizeOnly bool
	storageSize     int
	truncated       bool
	writeError      bool
}

func (c *writeCtx) write(data []byte) bool {
	if !c.computeSizeOnly && !c.storage.Write(c.offset, data) {
		c.writeError = true
		return false
	}
	c.offset += len(data)
	return true
}

func floorToMultiple(v, mult int) int {
	return (v / mult) * mult
}

// writeBlockWithAddress writes a TLV block, truncating its payload to
// whatever free space remains (word-aligned) rather than failing outright,
// matching prv_write_block_with_address's truncate-to-fit behavior.
func (c *writeCtx) writeBlockWithAddress(blockType BlockType, payload []byte, address uint32, wordAlignedReadsOnly bool) bool {
	if len(payload) == 0 {
		return true
	}

	totalLength := blockHdrSize + len(payload)
	storageBytesFree := 0
	if c.storageSize > c.offset {
		storageBytesFree = c.storageSize - c.offset
	}

	if !c.computeSizeOnly && storageBytesFree < totalLength {
		c.truncated = true
		if storageBytesFree < blockHdrSize {
			return false
		}
		payload = payload[:floorToMultiple(storageBytesFree-blockHdrSize, wordSize)]
		if len(payload) == 0 {
			return false
		}
	}

	hdr := make([]byte, blockHdrSize)
	hdr[0] = byte(blockType)
	binary.LittleEndian.PutUint32(hdr[4:8], address)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(payload)))
	if !c.write(hdr) {
		return false
	}

	if !wordAlignedReadsOnly || len(payload)%wordSize != 0 {
		return c.write(payload)
	}

	// Word-access-only regions (e.g. memory-mapped registers) must be
	// copied out 32 bits at a time.
	for i := 0; i+wordSize <= len(payload); i += wordSize {
		if !c.write(payload[i : i+wordSize]) {
			return false
		}
	}
	return !c.truncated
}

func (c *writeCtx) writeNonMemoryBlock(blockType BlockType, payload []byte) bool {
	return c.writeBlockWithAddress(blockType, payload, 0, false)
}

func (c *writeCtx) insertPaddingIfNecessary() {
	remainder := c.offset % wordSize
	if remainder == 0 {
		return
	}
	c.writeNonMemoryBlock(BlockTypePaddingRegion, make([]byte, wordSize-remainder))
}

func (c *writeCtx) writeDeviceInfoBlocks(info DeviceInfo) bool {
	if len(info.BuildID) > 0 && !c.writeNonMemoryBlock(BlockTypeBuildID, info.BuildID) {
		return false
	}
	if info.DeviceSerial != "" && !c.writeNonMemoryBlock(BlockTypeDeviceSerial, []byte(info.DeviceSerial)) {
		return false
	}
	if info.SoftwareVersion != "" && !c.writeNonMemoryBlock(BlockTypeSoftwareVersion, []byte(info.SoftwareVersion)) {
		return false
	}
	if info.SoftwareType != "" && !c.writeNonMemoryBlock(BlockTypeSoftwareType, []byte(info.SoftwareType)) {
		return false
	}
	if info.HardwareVersion != "" && !c.writeNonMemoryBlock(BlockTypeHardwareVersion, []byte(info.HardwareVersion)) {
		return false
	}

	machineBlock := make([]byte, 4)
	binary.LittleEndian.PutUint32(machineBlock, uint32(currentMachineType))
	return c.writeNonMemoryBlock(BlockTypeMachineType, machineBlock)
}

// currentMachineType is set by the caller (normally once, at startup) via
// SetMachineType; it stands in for the original's compile-time
// architecture detection (prv_get_machine_type), which has no Go
// equivalent since this SDK targets whatever platform the host binary
// was built for.
var currentMachineType = MachineTypeNone

// SetMachineType configures the MachineType block written into every
// future coredump.
func SetMachineType(t MachineType) { currentMachineType = t }

func (c *writeCtx) writeTraceReason(reason uint32) bool {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, reason)
	return c.writeNonMemoryBlock(BlockTypeTraceReason, buf)
}

func (c *writeCtx) writeRegions(regions []Region) bool {
	for _, region := range regions {
		c.insertPaddingIfNecessary()

		fixed, ok := fixupIfCached(region)
		if !ok {
			continue
		}

		wordAlignedOnly := fixed.Type == RegionTypeMemoryWordAccessOnly
		if !c.writeBlockWithAddress(regionToBlockType(fixed.Type), fixed.Data, fixed.Address, wordAlignedOnly) {
			return false
		}
	}
	return true
}

func (c *writeCtx) writeHeader(totalSize int) bool {
	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[0:4], coredumpMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], coredumpVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(totalSize))
	return c.write(hdr)
}

func headerIsValid(b []byte) bool {
	return len(b) >= headerSize && binary.LittleEndian.Uint32(b[0:4]) == coredumpMagic
}

// writeSections performs one full save pass: header placeholder, optional
// registers block, device-info blocks, trace reason, then every
// arch/sdk/caller region in order, then the footer, then (for a real
// write) the header is written last to mark the coredump valid, matching
// the original's "write header last" commit-point invariant so a crash
// mid-write never leaves a coredump with a valid-looking magic but
// truncated contents.
func writeSections(storage interfaces.Storage, info DeviceInfo, save SaveInfo, archRegions, sdkRegions []Region, computeSizeOnly bool) (int, bool) {
	if len(save.Regions) == 0 {
		return 0, false
	}

	storageSize := 0
	if !computeSizeOnly {
		if !storage.SaveBegin() {
			return 0, false
		}

		hdr := make([]byte, headerSize)
		if !storage.Read(0, hdr) {
			return 0, false
		}
		if headerIsValid(hdr) {
			// Don't overwrite an existing coredump: preserve whichever
			// crash started the loop.
			return 0, false
		}

		storageSize = storage.GetInfo().Size
		if storageSize == 0 {
			return 0, false
		}
		if !storage.Erase(0, storageSize) {
			return 0, false
		}
	} else {
		storageSize = storage.GetInfo().Size
	}

	ctx := &writeCtx{
		storage:         storage,
		offset:          headerSize,
		computeSizeOnly: computeSizeOnly,
		storageSize:     storageSize,
	}
	if ctx.storageSize > footerSize {
		// always leave space for the footer
		ctx.storageSize -= footerSize
	}

	if len(save.Regs) > 0 && !ctx.writeNonMemoryBlock(BlockTypeCurrentRegisters, save.Regs) {
		return 0, false
	}
	if !ctx.writeDeviceInfoBlocks(info) {
		return 0, false
	}
	if !ctx.writeTraceReason(save.TraceReason) {
		return 0, false
	}

	writeCompleted := ctx.writeRegions(archRegions) && ctx.writeRegions(sdkRegions) && ctx.writeRegions(save.Regions)
	if !writeCompleted && ctx.writeError {
		return 0, false
	}

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(footer[0:4], coredumpFooterMagic)
	if ctx.truncated {
		binary.LittleEndian.PutUint32(footer[4:8], footerFlagSaveTruncated)
	}
	ctx.storageSize = storageSize
	if !ctx.write(footer) {
		return 0, false
	}

	endOffset := ctx.offset
	ctx.offset = 0
	if !ctx.writeHeader(endOffset) {
		return 0, false
	}
	return endOffset, true
}

// GetSaveSize reports how many bytes Save would write, without touching
// storage.
func GetSaveSize(storage interfaces.Storage, info DeviceInfo, save SaveInfo, archRegions, sdkRegions []Region) int {
	size, _ := writeSections(storage, info, save, archRegions, sdkRegions, true)
	return size
}

// Save captures save along with archRegions/sdkRegions (SDK- and
// architecture-specific regions the caller always wants included, e.g.
// fault registers) to storage. It refuses to overwrite an
// already-present valid coredump.
func Save(storage interfaces.Storage, info DeviceInfo, save SaveInfo, archRegions, sdkRegions []Region) bool {
	_, ok := writeSections(storage, info, save, archRegions, sdkRegions, false)
	return ok
}

// HasValidCoredump reports whether storage holds a coredump with a valid
// header, and its total size.
func HasValidCoredump(storage interfaces.Storage) (int, bool) {
	hdr := make([]byte, headerSize)
	if !storage.Read(0, hdr) {
		return 0, false
	}
	if !headerIsValid(hdr) {
		return 0, false
	}
	return int(binary.LittleEndian.Uint32(hdr[8:12])), true
}

// Read copies buf_len bytes from storage starting at offset, for readout
// by the packetizer.
func Read(storage interfaces.Storage, offset int, buf []byte) bool {
	return storage.Read(offset, buf)
}

// Clear discards whatever coredump storage currently holds.
func Clear(storage interfaces.Storage) bool {
	return storage.Clear()
}
