// Package web serves a recorded call trace for interactive browsing. It
// exposes the projected report model and per-frame details over a JSON API
// and renders the interactive page at the root path.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/tracekit/callscope/calltrace"
	"github.com/tracekit/callscope/render"
	"github.com/tracekit/callscope/report"
)

// A Server turns a finalized call trace into a local web service so the
// hierarchy can be explored in a browser.
type Server struct {
	roots       []*calltrace.Frame
	portNumber  int
	openBrowser bool
}

// NewServer creates a new Server.
func NewServer() *Server {
	return &Server{}
}

// WithTrace sets the forest to serve.
func (s *Server) WithTrace(roots []*calltrace.Frame) *Server {
	s.roots = roots
	return s
}

// WithPortNumber sets the port number of the server.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the trace server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// OpenBrowser makes StartServer open the served page in the default browser.
func (s *Server) OpenBrowser() *Server {
	s.openBrowser = true
	return s
}

// StartServer starts serving the trace. The port number can also be set
// through the CALLSCOPE_PORT environment variable or a .env file; an
// explicitly configured port wins.
func (s *Server) StartServer() {
	s.loadEnvConfig()

	r := mux.NewRouter()
	r.HandleFunc("/", s.servePage)
	r.HandleFunc("/api/trace", s.serveTrace)
	r.HandleFunc("/api/frame/{id}", s.serveFrameDetail)
	r.HandleFunc("/api/resource", s.listResources)
	r.HandleFunc("/api/profile", s.collectProfile)

	actualPort := ":0"
	if s.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving call trace at %s\n", url)

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	if s.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}
}

func (s *Server) loadEnvConfig() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if s.portNumber != 0 {
		return
	}

	portStr := os.Getenv("CALLSCOPE_PORT")
	if portStr == "" {
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid CALLSCOPE_PORT %q, ignored\n", portStr)
		return
	}

	s.WithPortNumber(port)
}

func (s *Server) servePage(w http.ResponseWriter, _ *http.Request) {
	renderer := render.NewHTMLRenderer()

	err := renderer.Write(report.Project(s.roots), w)
	dieOnErr(err)
}

func (s *Server) serveTrace(w http.ResponseWriter, _ *http.Request) {
	bytes, err := json.Marshal(report.Project(s.roots))
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (s *Server) serveFrameDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	frame := s.findFrameOr404(w, id)
	if frame == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(frame)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (s *Server) findFrameOr404(
	w http.ResponseWriter,
	id string,
) *calltrace.Frame {
	frame := findFrame(s.roots, id)
	if frame == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Frame not found"))
		dieOnErr(err)
	}

	return frame
}

func findFrame(roots []*calltrace.Frame, id string) *calltrace.Frame {
	for _, root := range roots {
		if root.ID == id {
			return root
		}

		if found := findFrame(root.Children, id); found != nil {
			return found
		}
	}

	return nil
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (s *Server) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
