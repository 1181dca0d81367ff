package main

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shaygalon/htt2/internal/aggregate"
	"github.com/shaygalon/htt2/internal/budget"
	"github.com/shaygalon/htt2/internal/conn"
	"github.com/shaygalon/htt2/internal/cpustat"
	"github.com/shaygalon/htt2/internal/reactor"
	"github.com/shaygalon/htt2/internal/report"
	"github.com/shaygalon/htt2/internal/session"
	"github.com/shaygalon/htt2/internal/tlsconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// flags holds every CLI-surface value from spec.md §6, bound by pflag on the
// root command.
type flags struct {
	numRequests int64
	numConns    int
	numThreads  int
	keepAlive   bool
	quiet       bool
	infinite    bool
	runSeconds  int
	cipherList  string
	sessionFile string
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	var showVersion bool

	cmd := &cobra.Command{
		Use:          "htt2 [url]",
		Short:        "concurrent HTTP/1.1 load generator",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println("htt2 version", version)
				return nil
			}
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			return orchestrate(f, target, cmd.Flags().Changed("run-time"))
		},
	}

	pf := cmd.Flags()
	pf.Int64VarP(&f.numRequests, "requests", "n", 1, "number of requests to issue (count mode)")
	pf.IntVarP(&f.numConns, "connections", "c", 1, "number of concurrent connections")
	pf.IntVarP(&f.numThreads, "threads", "t", 1, "number of worker threads")
	pf.BoolVarP(&f.keepAlive, "keep-alive", "k", false, "enable HTTP keep-alive")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress output")
	pf.BoolVarP(&f.infinite, "infinite", "i", false, "run forever")
	pf.IntVarP(&f.runSeconds, "run-time", "r", 120, "run for N seconds (time mode)")
	pf.StringVarP(&f.cipherList, "cipher-priority", "z", "", "TLS cipher priority string")
	pf.StringVarP(&f.sessionFile, "session-file", "f", "", "session file path")
	pf.BoolVarP(&showVersion, "version", "v", false, "print version and exit")

	return cmd
}

// orchestrate is the control flow from spec.md §2: build templates,
// partition connections across workers, spawn workers and a CPU sampler,
// wait, report. Host names are not resolved here; each dial resolves them.
func orchestrate(f *flags, target string, rChanged bool) error {
	if err := validateFlags(f, rChanged); err != nil {
		return err
	}

	mode, numRequests, runTime := resolveMode(f, rChanged)

	pools, tlsConfig, err := buildPools(f, target)
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if f.quiet {
		log.SetLevel(logrus.ErrorLevel)
	}

	b := budget.New(mode, numRequests, runTime, f.quiet)

	numSessions := len(pools)
	workerConns := make([][]*conn.Conn, f.numThreads)
	workerCounters := make([]*conn.Counters, f.numThreads)
	connDialTimeout := 10 * time.Second

	for wID := 0; wID < f.numThreads; wID++ {
		workerCounters[wID] = &conn.Counters{}
	}

	firstConn, lastConn := 0, 0
	for wID := 0; wID < f.numThreads; wID++ {
		firstConn = lastConn
		lastConn = connBoundary(f.numConns, f.numThreads, wID+1)
		for j := firstConn; j < lastConn; j++ {
			sessID := session.SessionForConn(j, numSessions)
			pool := pools[sessID]
			c := conn.New(j, conn.Config{
				Addr:        pool.Addr,
				KeepAlive:   f.keepAlive,
				DialTimeout: connDialTimeout,
				TLSConfig:   tlsConfig,
				Log:         log,
			}, b, workerCounters[wID], pool, int64(j)*2654435761+1)
			workerConns[wID] = append(workerConns[wID], c)
		}
	}

	sampler := cpustat.Start()

	var sigCh = make(chan os.Signal, 1)
	signal.Ignore(syscall.SIGPIPE)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		b.Stop()
	}()

	b.Start()
	runStart := time.Now()

	var wg sync.WaitGroup
	for wID := 0; wID < f.numThreads; wID++ {
		w := reactor.New(wID, workerConns[wID], workerCounters[wID], b, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run()
		}()
	}
	wg.Wait()
	signal.Stop(sigCh)
	duration := time.Since(runStart)
	sampler.Stop()

	counterSources := make([]aggregate.CounterSource, len(workerCounters))
	for i, c := range workerCounters {
		counterSources[i] = c
	}
	var successCounts []int64
	for _, conns := range workerConns {
		for _, c := range conns {
			successCounts = append(successCounts, c.SuccessCount())
		}
	}

	totals := aggregate.Sum(counterSources, successCounts, duration, numRequests)
	report.Write(os.Stdout, totals, f.keepAlive, sampler.Average())
	return nil
}

// connBoundary returns the cumulative connection count owned by the first n
// workers, balancing any remainder across the earliest workers (spec.md
// §8's partition law: no loss, no duplication).
func connBoundary(numConns, numThreads, n int) int {
	base := numConns / numThreads
	rem := numConns % numThreads
	b := base * n
	if n < rem {
		b += n
	} else {
		b += rem
	}
	return b
}

// validateFlags mirrors the original's bounds checks (original_source/
// httpress.c, main()), applied uniformly regardless of mode: even in
// infinite mode, -c and -t are still validated against whatever -n holds
// (its default of 1 if unset), which is the original's behavior too.
func validateFlags(f *flags, rChanged bool) error {
	if f.numRequests < 1 || f.numRequests > 1_000_000_000 {
		return fmt.Errorf("htt2: -n must be in [1, 1000000000]")
	}
	if f.numConns < 1 || f.numConns > 1_000_000 || int64(f.numConns) > f.numRequests {
		return fmt.Errorf("htt2: -c must be >= 1 and <= -n")
	}
	if f.numThreads < 1 || f.numThreads > 100_000 || f.numThreads > f.numConns {
		return fmt.Errorf("htt2: -t must be >= 1 and <= -c")
	}
	if rChanged && !f.infinite && (f.runSeconds < 1 || f.runSeconds > 3600) {
		return fmt.Errorf("htt2: -r must be in [1, 3600]")
	}
	return nil
}

// resolveMode implements the original's three-way mode precedence (spec.md
// §6, grounded on original_source/httpress.c's config.infinite tri-state):
// -i always wins; else an explicit -r selects time mode and recomputes
// num_requests = 10*threads*connections; else count mode uses -n.
func resolveMode(f *flags, rChanged bool) (mode budget.Mode, numRequests int64, runTime time.Duration) {
	if f.infinite {
		return budget.ModeInfinite, f.numRequests, 0
	}
	if rChanged {
		return budget.ModeTime, int64(10 * f.numThreads * f.numConns), time.Duration(f.runSeconds) * time.Second
	}
	return budget.ModeCount, f.numRequests, 0
}

// buildPools constructs one session.Pool per session: either the single
// session implied by a positional URL, or every session in -f's session
// file, each keeping its own destination address and template set (spec.md
// §4.6).
func buildPools(f *flags, target string) ([]*session.Pool, *tls.Config, error) {
	if f.sessionFile != "" {
		return buildPoolsFromFile(f)
	}
	if target == "" {
		return nil, nil, fmt.Errorf("htt2: missing url argument")
	}
	return buildPoolsFromURL(f, target)
}

// buildPoolsFromURL builds the single session implied by a positional
// target. An https:// scheme enables TLS, keyed off -z's cipher priority
// string (spec.md §6); session files carry no scheme and are always plain
// HTTP, matching the original grammar.
func buildPoolsFromURL(f *flags, target string) ([]*session.Pool, *tls.Config, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, nil, fmt.Errorf("htt2: invalid url %q", target)
	}
	defaultPort := "80"
	if u.Scheme == "https" {
		defaultPort = "443"
	}
	host, port := session.ResolveHost(u.Host, defaultPort)
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	hostHeader := net.JoinHostPort(host, port)
	tmpl := session.BuildTemplate(hostHeader, path, f.keepAlive)
	pool := &session.Pool{
		Addr:      hostHeader,
		Templates: []session.Template{tmpl},
	}

	var tlsCfg *tls.Config
	if u.Scheme == "https" {
		suites, err := tlsconfig.ParseCipherList(f.cipherList)
		if err != nil {
			return nil, nil, err
		}
		tlsCfg = tlsconfig.Build(host, suites, false)
	}
	return []*session.Pool{pool}, tlsCfg, nil
}

func buildPoolsFromFile(f *flags) ([]*session.Pool, *tls.Config, error) {
	fh, err := os.Open(f.sessionFile)
	if err != nil {
		return nil, nil, fmt.Errorf("htt2: %w", err)
	}
	defer fh.Close()

	file, err := session.Parse(fh)
	if err != nil {
		return nil, nil, err
	}

	counts := make([]int, len(file.Sessions))
	for i, s := range file.Sessions {
		counts[i] = len(s.Paths)
	}
	boundaries := session.BuildBoundaries(counts)

	var flatPaths []string
	for _, s := range file.Sessions {
		flatPaths = append(flatPaths, s.Paths...)
	}

	pools := make([]*session.Pool, len(file.Sessions))
	for id, s := range file.Sessions {
		first, last := session.URLRange(boundaries, id)
		host, port := session.ResolveHost(s.Host, "80")
		hostHeader := net.JoinHostPort(host, port)

		templates := make([]session.Template, 0, last-first)
		for _, path := range flatPaths[first:last] {
			templates = append(templates, session.BuildTemplate(hostHeader, path, f.keepAlive))
		}
		pools[id] = &session.Pool{Addr: hostHeader, Templates: templates}
	}
	return pools, nil, nil
}
