package main

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/queuetheory/lossim/simulator"
)

var indexTemplate *template.Template

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types
type ClientMessage struct {
	Type   string               `json:"type"`
	Config *simulator.SimConfig `json:"config,omitempty"`
}

// Server message types
type ServerMessage struct {
	Type    string                  `json:"type"`
	Running *bool                   `json:"running,omitempty"`
	Config  *simulator.SimConfig    `json:"config,omitempty"`
	Stats   *simulator.Stats        `json:"stats,omitempty"`
	Point   *simulator.SimDataPoint `json:"point,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// expState manages one live experiment behind the websocket UI
type expState struct {
	mu      sync.Mutex
	config  simulator.SimConfig
	server  *simulator.Server
	client  *simulator.Client
	running bool
	stopCh  chan struct{}
}

func newExpState(config simulator.SimConfig) *expState {
	return &expState{
		config: config,
		stopCh: make(chan struct{}),
	}
}

// start spins up a fresh Server/Client pair for the current config.
// A Client only runs once, so each start builds a new pair.
func (s *expState) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	// Distinct seeds keep the arrival and service streams decorrelated
	// when a reproducible seed is configured
	serverSeed, clientSeed := s.config.RandomSeed, s.config.RandomSeed
	if s.config.RandomSeed != 0 {
		serverSeed = s.config.RandomSeed*2 + 1
		clientSeed = s.config.RandomSeed * 2
	}
	server, err := simulator.NewServerWithClock(
		s.config.Channels, s.config.ServiceRate, s.config.TimeScale, serverSeed, simulator.RealClock)
	if err != nil {
		return err
	}
	client, err := simulator.NewClientWithClock(
		s.config.ArrivalRate, s.config.TimeScale, clientSeed, simulator.RealClock)
	if err != nil {
		return err
	}

	client.Subscribe(server)
	server.StartSimulation()
	client.Start()

	s.server = server
	s.client = client
	s.running = true
	return nil
}

// stopExperiment freezes the running experiment, keeping its final stats visible
func (s *expState) stopExperiment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.client.Stop()
	s.server.StopSimulation()
	s.running = false
}

// reset drops the current experiment entirely
func (s *expState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.client.Stop()
		s.server.StopSimulation()
	}
	s.server = nil
	s.client = nil
	s.running = false
}

// updateConfig replaces the configuration; rejected while an experiment runs
func (s *expState) updateConfig(config simulator.SimConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("stop the running experiment before updating config")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	s.config = config
	return nil
}

func (s *expState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *expState) getConfig() simulator.SimConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// snapshot returns the live stats and the derived data point, or nil before
// the first start
func (s *expState) snapshot() (*simulator.Stats, *simulator.SimDataPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil, nil
	}
	stats := s.server.Stats()
	point := simulator.NewSimDataPoint(s.config.ArrivalRate, s.config, stats)
	return &stats, &point
}

// stop signals the UI loop to stop
func (s *expState) stop() {
	close(s.stopCh)
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

// uiUpdateLoop periodically pushes live stats to the client and refreshes the
// Prometheus gauges. Runs in its own goroutine per connection.
func uiUpdateLoop(conn *safeConn, state *expState) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-state.stopCh:
			log.Println("UI update loop stopping")
			return

		case <-ticker.C:
			stats, point := state.snapshot()
			if stats == nil {
				continue
			}
			updatePrometheusMetrics(stats, point)

			msg := ServerMessage{
				Type:  "stats",
				Stats: stats,
				Point: point,
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("Error sending stats: %v", err)
				return
			}
		}
	}
}

func sendStatus(conn *safeConn, state *expState) {
	running := state.isRunning()
	cfg := state.getConfig()
	conn.WriteJSON(ServerMessage{
		Type:    "status",
		Running: &running,
		Config:  &cfg,
	})
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	safeConn := &safeConn{Conn: conn}
	log.Println("Client connected")

	state := newExpState(simulator.DefaultConfig())
	sendStatus(safeConn, state)

	go uiUpdateLoop(safeConn, state)

	for {
		var msg ClientMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		log.Printf("Received command: %s", msg.Type)

		switch msg.Type {
		case "start":
			if err := state.start(); err != nil {
				log.Printf("Error starting experiment: %v", err)
				safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
				break
			}
			log.Println("Experiment started")
			sendStatus(safeConn, state)

		case "stop":
			state.stopExperiment()
			log.Println("Experiment stopped")
			sendStatus(safeConn, state)

		case "reset":
			state.reset()
			log.Println("Experiment reset")
			sendStatus(safeConn, state)

		case "config_update":
			if msg.Config != nil {
				if err := state.updateConfig(*msg.Config); err != nil {
					log.Printf("Error updating config: %v", err)
					safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
				} else {
					log.Printf("Config updated: %+v", *msg.Config)
					sendStatus(safeConn, state)
				}
			}
		}
	}

	// Clean up
	state.reset()
	state.stop()
	log.Println("Client disconnected")
}

func serveHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		log.Printf("Error executing template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func quitHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("Shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Server shutting down...")

	go func() {
		time.Sleep(100 * time.Millisecond)
		log.Println("Server stopped")
		os.Exit(0)
	}()
}

func main() {
	templatePath := filepath.Join("templates", "index.html")
	var err error
	indexTemplate, err = template.ParseFiles(templatePath)
	if err != nil {
		log.Fatalf("Error loading template: %v", err)
	}
	log.Printf("Loaded template: %s", templatePath)

	initPrometheusMetrics()

	http.HandleFunc("/", serveHome)
	http.HandleFunc("/ws", handleWebSocket)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/quitquitquit", quitHandler)

	addr := ":8080"
	log.Printf("Server starting on http://localhost%s", addr)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws", addr)
	log.Printf("Prometheus endpoint: http://localhost%s/metrics", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
