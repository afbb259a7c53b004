/*
Package resolver implements a simple limiting DNS client-request execution
pool. edgedig uses [Pool] with a pool of “DNS workers” to establish each
target domain's [Baseline]: the addresses the domain currently resolves to,
and whether that resolution looks blocked (only private/special addresses).
Please note that the A/AAAA queries for a single domain are not concurrent.

Usage

	dnsclnt := dns.Client{}
	pool, err := resolver.New(
	    context.Background(),
	    4,               // number of parallel DNS connections and thus workers
	    &dnsclnt,        // DNS client
	    "1.1.1.1:53",    // address of server/resolver
	)
	pool.Baseline(ctx, "example.com",
	    func(bl resolver.Baseline, err error) {
	        // do something with bl, unless there's an error reported
	    })
	pool.Submit(func(conn *dns.Conn) {
	    // do something with the DNS connection
	})

# Acknowledgements

Under its hood, [Pool] leverages [gammazero/workerpool] as the limiting
goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package resolver
