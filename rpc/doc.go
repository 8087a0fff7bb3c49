// Package rpc frames hprose remote calls.
//
// A request is an optional header block, the call tag, the method name and an
// optional argument list, closed by the end tag:
//
//	Cs3"add"a2{23}z
//
// A response carries a result, an error message or nothing:
//
//	R5z
//	Es14"unknown method"z
//	z
//
// ClientCodec and ServiceCodec build and parse these frames. Service adds an
// in-memory dispatcher that maps method names to Go functions. Transports are
// left to the caller; the grpccodec package offers one binding.
package rpc
