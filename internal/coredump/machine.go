package coredump

// MachineType identifies the target architecture in the coredump's
// MachineType block, using ELF e_machine values (a half word) with the
// upper 16 bits repurposed to encode an SDK-specific subtype, matching
// TICOS_MACHINE_TYPE_SUBTYPE_OFFSET.
type MachineType uint32

const machineTypeSubtypeOffset = 16

const (
	MachineTypeNone    MachineType = 0
	MachineTypeARM     MachineType = 40
	MachineTypeAarch64 MachineType = 183
	MachineTypeXtensa  MachineType = 94
)

// MachineTypeXtensaLX106 tags an Xtensa target built for the non-windowed
// (call0) ABI, encoded as a subtype nibble over MachineTypeXtensa.
const MachineTypeXtensaLX106 = MachineType(1<<machineTypeSubtypeOffset) | MachineTypeXtensa
