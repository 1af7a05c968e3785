package openlcb

import "github.com/openlcb/canlink/internal/buffer"

// Message is a fully-reassembled inbound OpenLCB-level payload, decoded
// from a Buffer Store record handed over by the CAN layer's message FIFO.
type Message struct {
	MTI         MTI
	SourceAlias uint16
	DestAlias   uint16
	Payload     []byte
}

func fromRecord(r *buffer.Record) Message {
	return Message{
		MTI:         MTI(r.MTI),
		SourceAlias: r.SourceAlias,
		DestAlias:   r.DestAlias,
		Payload:     r.Payload(),
	}
}
