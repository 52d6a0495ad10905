package coredump

import "github.com/ticos-sdk/go-ticos/internal/interfaces"

// DataSource exposes a coredump Storage as a packetizer data source,
// matching g_ticos_coredump_data_source's has_more_msgs/read_msg/
// mark_msg_read trio.
type DataSource struct {
	storage interfaces.Storage
}

// NewDataSource wires a data source to the storage backing saved
// coredumps.
func NewDataSource(storage interfaces.Storage) *DataSource {
	return &DataSource{storage: storage}
}

func (d *DataSource) HasMoreMsgs() (int, bool) {
	return HasValidCoredump(d.storage)
}

func (d *DataSource) ReadMsg(offset int, buf []byte) bool {
	return Read(d.storage, offset, buf)
}

func (d *DataSource) MarkMsgRead() {
	Clear(d.storage)
}

var _ interfaces.DataSource = (*DataSource)(nil)
