package pipeline

import "github.com/marcelocantos/csp"

// RPCClient builds a call function over a fixed request/reply channel
// pair: the server must deliver each reply before accepting the next
// request. Grounded on original_source/include/csp/rpc.h's
// rpc_client/rpc_server channel-pair overload, with the C++ variadic
// Args... collapsed into a single Req type parameter, the idiomatic Go
// shape for a request payload.
func RPCClient[Req, Rep any](req csp.Writer[Req], rep csp.Reader[Rep]) func(t *csp.Task, r Req) (Rep, error) {
	return func(t *csp.Task, r Req) (Rep, error) {
		sendOp := csp.SendOp(req, r)
		if t.Prialt(false, sendOp, rep.CloseWatch()) == 1 {
			v, ok := rep.Recv(t)
			if ok {
				return v, nil
			}
		}
		var zero Rep
		return zero, csp.ErrRpcDead
	}
}

// RPCServer runs f against each request on req, writing each reply to
// rep in turn, until either endpoint dies.
func RPCServer[Req, Rep any](t *csp.Task, req csp.Reader[Req], rep csp.Writer[Rep], f func(Req) Rep) {
	for {
		ops := []csp.Op{csp.RecvOp(req), rep.CloseWatch()}
		if t.Prialt(false, ops...) != 1 {
			return
		}
		if !rep.Send(t, f(ops[0].Message().(Req))) {
			return
		}
	}
}

// RPCRequest is one self-contained call envelope for the second
// rpc.h overload, where each request carries its own dedicated reply
// writer so the server may accept new requests before a previous
// reply has been read.
type RPCRequest[Req, Rep any] struct {
	Req   Req
	Reply csp.Writer[Rep]
}

// RPCClientMulti calls over a request channel that embeds a
// freshly-made reply channel in every request, letting the server
// pipeline concurrent replies instead of serializing one at a time.
func RPCClientMulti[Req, Rep any](t *csp.Task, req csp.Writer[RPCRequest[Req, Rep]], r Req) (Rep, error) {
	repW, repR := csp.NewChan[Rep](t.Rt())
	if !req.Send(t, RPCRequest[Req, Rep]{Req: r, Reply: repW}) {
		var zero Rep
		return zero, csp.ErrRpcDead
	}
	v, ok := repR.Recv(t)
	if !ok {
		var zero Rep
		return zero, csp.ErrRpcDead
	}
	return v, nil
}

// RPCServerMulti services requests carrying their own reply channel,
// one goroutine-free call to f per request.
func RPCServerMulti[Req, Rep any](t *csp.Task, req csp.Reader[RPCRequest[Req, Rep]], f func(Req) Rep) {
	for {
		v, ok := req.Recv(t)
		if !ok {
			return
		}
		v.Reply.Send(t, f(v.Req))
	}
}
