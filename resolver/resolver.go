// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
)

// Pool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address. edgedig uses it to establish each target
// domain's baseline: the addresses the domain currently publishes, before
// any edge-range probing happens.
type Pool struct {
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the free connection list
	free    []*dns.Conn
}

// New returns a pool of the specified size of DNS client connections, with
// each connection talking to the same DNS resolver address. Queries are
// submitted either as raw task functions via [Pool.Submit] or through the
// [Pool.ResolveName] convenience.
//
// The passed context covers dialing the client connections only; submitters
// capture their own context in the task closures they hand in.
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string) (*Pool, error) {
	free := make([]*dns.Conn, 0, size)
	for i := 0; i < size; i++ {
		conn, err := dnsclnt.DialContext(ctx, addr)
		if err != nil {
			for _, conn := range free {
				conn.Close()
			}
			return nil, fmt.Errorf("cannot connect to resolver %s: %w", addr, err)
		}
		free = append(free, conn)
	}
	return &Pool{
		workers: workerpool.New(size),
		free:    free,
	}, nil
}

// Submit a task to the DNS client connection pool, where it gets enqueued to
// be executed on the next available DNS client connection.
func (p *Pool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.withConn(task) })
}

// ResolveName submits A and AAAA queries for the specified name and passes
// the complete set of resolved addresses, or a resolution error, to the
// callback function fn. fn is called exactly once, after both address
// families have been queried.
//
// Cancelling the passed context cancels in-flight as well as still-enqueued
// resolution jobs.
func (p *Pool) ResolveName(ctx context.Context, name string, fn func([]netip.Addr, error)) {
	p.Submit(func(conn *dns.Conn) {
		var addrs []netip.Addr
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			if err := ctx.Err(); err != nil {
				fn(nil, err)
				return
			}
			answers, err := query(conn, name, qtype)
			if err != nil {
				fn(nil, err)
				return
			}
			addrs = append(addrs, answers...)
		}
		// A name that answers neither A nor AAAA is of no use to a probing
		// run, so that's an error rather than an empty success.
		if len(addrs) == 0 {
			fn(nil, fmt.Errorf("ResolveName: query for %q yields no answers", name))
			return
		}
		fn(addrs, nil)
	})
}

// query runs a single A or AAAA query over the specified connection and
// returns the address answers.
func query(conn *dns.Conn, name string, qtype uint16) ([]netip.Addr, error) {
	msg := dns.Msg{
		MsgHdr: dns.MsgHdr{Id: dns.Id()},
	}
	msg.SetQuestion(dns.Fqdn(name), qtype)
	dnsclnt := dns.Client{}
	reply, _, err := dnsclnt.ExchangeWithConn(&msg, conn)
	if err != nil {
		return nil, err
	}
	var addrs []netip.Addr
	for _, rr := range reply.Answer {
		var addr netip.Addr
		var ok bool
		switch answer := rr.(type) {
		case *dns.A:
			addr, ok = netip.AddrFromSlice(answer.A.To4())
		case *dns.AAAA:
			addr, ok = netip.AddrFromSlice(answer.AAAA.To16())
		default:
			continue
		}
		if ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs, nil
}

// withConn grabs the next free DNS client connection for the specified task
// function, returning the connection into the free list afterwards.
func (p *Pool) withConn(task func(conn *dns.Conn)) {
	p.mu.Lock()
	if len(p.free) == 0 {
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	task(conn)
	p.mu.Lock()
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

// StopWait waits for all enqueued resolution tasks to finish and then shuts
// the pool down, closing its client connections.
func (p *Pool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
