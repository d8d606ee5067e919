package disasm

import (
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/set"
)

const (
	startLabel  = "Start"
	funcNaming  = "_func_%04x"
	labelNaming = "_label_%04x"
	dataNaming  = "_data_%04x"
)

// processReferences collects all addresses referenced by decoded
// instructions and assigns label names to those that start an offset.
func (dis *Disasm) processReferences() {
	for _, offset := range dis.offsets {
		if !offset.valid {
			continue
		}
		target, ok := offset.ins.Target()
		if !ok {
			continue
		}

		switch {
		case offset.ins.IsCall():
			dis.callDestinations.Add(target)
		case offset.ins.IsJump():
			dis.branchDestinations.Add(target)
		default:
			dis.dataReferences.Add(target)
		}
	}

	if len(dis.offsets) > 0 {
		dis.labels[dis.start] = startLabel
	}

	for _, address := range dis.labelAddresses() {
		if _, ok := dis.labels[address]; ok {
			continue
		}

		var name string
		switch {
		case dis.callDestinations.Contains(address):
			name = fmt.Sprintf(funcNaming, address)
		case dis.branchDestinations.Contains(address):
			name = fmt.Sprintf(labelNaming, address)
		default:
			name = fmt.Sprintf(dataNaming, address)
		}
		dis.labels[address] = name
	}
}

// labelAddresses returns the sorted referenced addresses that are located
// at the start of an offset of the program.
func (dis *Disasm) labelAddresses() []uint16 {
	var addresses []uint16
	for _, destinations := range []set.Set[uint16]{
		dis.callDestinations, dis.branchDestinations, dis.dataReferences,
	} {
		for address := range destinations {
			if dis.isOffsetStart(address) && !slices.Contains(addresses, address) {
				addresses = append(addresses, address)
			}
		}
	}
	slices.Sort(addresses)
	return addresses
}

func (dis *Disasm) isOffsetStart(address uint16) bool {
	if len(dis.offsets) == 0 || address < dis.start {
		return false
	}
	last := dis.offsets[len(dis.offsets)-1].address
	return address <= last && (address-dis.start)%2 == 0
}
