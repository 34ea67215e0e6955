// Package inputnode emulates a single input node of a decentralized
// automation network. A node periodically emits a data datagram to a
// mutable target address and listens on a fixed UDP port for small control
// commands that retarget the sender or answer liveness pings. The target
// address is the only state shared between the two loops; everything else
// is fire and forget.
//
// All datagrams use wire format v1. Control commands are JSON, one command
// per datagram:
//
//	{"type":"updateTarget","target":"10.0.0.7","target_port":9100}
//	{"type":"updateTarget","target":"10.0.0.7","target_port_base":30000}
//	{"type":"udpPing","replyTo":"10.0.0.3:7500"}
//
// Ports are organized in blocks of 10000 per area. The target_port_base
// form moves the flow to another block while keeping its offset inside the
// block: the effective port is target_port_base plus the node's initial
// target port modulo 10000. target_port wins when both are present.
// replyTo is optional and defaults to the datagram's source address.
//
// When an ack port is configured, a retarget is acknowledged with
//
//	{"type":"updateTarget","success":true}
//
// sent multiple times (redundancy instead of retransmission), and a ping
// with a single 8-byte big-endian timestamp, microseconds since the Unix
// epoch. With no ack port configured the node stays silent.
//
// Data messages are JSON as well:
//
//	{"id":"<xid>","message":"17123","meta":{"flow_name":"flow-1","execution_area":"area-a"}}
//
// Consumers must ignore unknown fields; the id field is a v1 addition that
// older consumers of the same format skip over.
package inputnode
