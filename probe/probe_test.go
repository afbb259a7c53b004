// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"time"

	"github.com/siemens/edgedig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

const testdomain = "unit.test"

// hostport splits a test server's listen address into the candidate address
// and port a Prober needs.
func hostport(listenaddr string) (netip.Addr, uint16) {
	host, portstr := Successful2R(net.SplitHostPort(listenaddr))
	port := Successful(strconv.ParseUint(portstr, 10, 16))
	return netip.MustParseAddr(host), uint16(port)
}

var _ = Describe("HTTP prober", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("probes a candidate serving the domain, over plain HTTP", NodeTimeout(30*time.Second), func(ctx context.Context) {
		hosts := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hosts <- r.Host
			w.Header().Set("Server", "unit-test-edge")
			w.Write([]byte("hi there")) //nolint:errcheck
		}))
		defer srv.Close()
		addr, port := hostport(srv.Listener.Addr().String())

		prober, verdicts := New(1, WithPort(port), OverPlainHTTP())
		prober.Probe(ctx, testdomain, addr)

		var verdict types.DomainVerdict
		Eventually(verdicts).Should(Receive(&verdict))
		Expect(verdict.Domain()).To(Equal(testdomain))
		Expect(verdict.Addr()).To(Equal(addr.String()))
		Expect(verdict.Out()).To(Equal(types.Probing))

		Eventually(verdicts).WithTimeout(10 * time.Second).Should(Receive(&verdict))
		Expect(verdict.Out()).To(Equal(types.Success))
		Expect(verdict.Lat()).To(BeNumerically(">", 0))
		sig := verdict.Sig()
		Expect(sig.StatusCode).To(Equal(http.StatusOK))
		Expect(sig.Header("Server")).To(Equal("unit-test-edge"))
		Expect(sig.BodyFragment).To(ContainSubstring("hi there"))

		Expect(hosts).To(Receive(Equal(testdomain)),
			"the domain must travel in the Host header")

		prober.StopWait()
		Eventually(verdicts).Should(BeClosed())
	})

	It("presents the domain as the TLS server name", NodeTimeout(30*time.Second), func(ctx context.Context) {
		servernames := make(chan string, 1)
		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			servernames <- r.TLS.ServerName
			w.Header().Set("Server", "unit-test-edge")
		}))
		defer srv.Close()
		addr, port := hostport(srv.Listener.Addr().String())

		prober, verdicts := New(1, WithPort(port))
		prober.Probe(ctx, testdomain, addr)
		defer prober.StopWait()

		Eventually(verdicts).WithTimeout(10 * time.Second).Should(Receive(
			HaveField("Out()", types.Success)))
		Expect(servernames).To(Receive(Equal(testdomain)))
	})

	It("classifies refused connections", NodeTimeout(30*time.Second), func(ctx context.Context) {
		// Allocate a port that is guaranteed to not accept connections by
		// binding it and immediately letting go of it again.
		lstnr := Successful(net.Listen("tcp", "127.0.0.1:0"))
		addr, port := hostport(lstnr.Addr().String())
		Expect(lstnr.Close()).To(Succeed())

		prober, verdicts := New(1, WithPort(port), OverPlainHTTP())
		prober.Probe(ctx, testdomain, addr)
		defer prober.StopWait()

		var verdict types.DomainVerdict
		Eventually(verdicts).Should(Receive(&verdict))
		Expect(verdict.Out()).To(Equal(types.Probing))
		Eventually(verdicts).WithTimeout(10 * time.Second).Should(Receive(&verdict))
		Expect(verdict.Out()).To(Equal(types.ConnectionError))
		Expect(verdict.Err()).To(HaveOccurred())
	})

	It("classifies late responses as timed out", NodeTimeout(30*time.Second), func(ctx context.Context) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		}))
		defer srv.Close()
		addr, port := hostport(srv.Listener.Addr().String())

		prober, verdicts := New(1,
			WithPort(port), OverPlainHTTP(), WithTimeout(150*time.Millisecond))
		prober.Probe(ctx, testdomain, addr)
		defer prober.StopWait()

		Eventually(verdicts).WithTimeout(10 * time.Second).Should(Receive(
			HaveField("Out()", types.Timeout)))
	})

	It("fails the probe when the ICMP precheck cannot get an echo", NodeTimeout(30*time.Second), func(ctx context.Context) {
		prober, verdicts := New(1,
			WithICMPPrecheck(), WithTimeout(250*time.Millisecond))
		// TEST-NET-3; never assigned, never answering.
		prober.Probe(ctx, testdomain, netip.MustParseAddr("203.0.113.1"))
		defer prober.StopWait()

		Eventually(verdicts).WithTimeout(10 * time.Second).Should(Receive(
			HaveField("Out()", types.ConnectionError)))
	})

	It("probes a stream of candidate addresses", NodeTimeout(30*time.Second), func(ctx context.Context) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Server", "unit-test-edge")
		}))
		defer srv.Close()
		addr, port := hostport(srv.Listener.Addr().String())

		const numcandidates = 3
		ch := make(chan netip.Addr, numcandidates)
		for i := 0; i < numcandidates; i++ {
			ch <- addr
		}
		close(ch)

		prober, verdicts := New(2, WithPort(port), OverPlainHTTP())
		go func() {
			prober.ProbeStream(ctx, testdomain, ch)
			prober.StopWait()
		}()

		finals := 0
		for verdict := range verdicts {
			if verdict.Out().IsPending() {
				continue
			}
			Expect(verdict.Out()).To(Equal(types.Success))
			finals++
		}
		Expect(finals).To(Equal(numcandidates))
	})

	It("is safe to stop multiple times", func() {
		prober, verdicts := New(1)
		prober.StopWait()
		prober.StopWait()
		Expect(verdicts).To(BeClosed())
	})

})
