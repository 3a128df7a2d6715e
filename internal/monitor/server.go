package monitor

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server is the monitoring UI. It stores received reports, renders the
// sessions and their score plots and pushes new reports to websocket clients.
type Server struct {
	storage *Storage
	router  *mux.Router

	mu      sync.Mutex
	clients map[chan Report]struct{}
}

// NewServer returns a UI server backed by storage.
func NewServer(storage *Storage) *Server {
	s := &Server{storage: storage, clients: make(map[chan Report]struct{})}
	r := mux.NewRouter()
	r.HandleFunc(ReceivePath, s.receive).Methods("POST")
	r.HandleFunc("/", s.index).Methods("GET")
	r.HandleFunc("/train/{session}", s.session).Methods("GET")
	r.HandleFunc("/train/{session}/score.svg", s.scorePlot).Methods("GET")
	r.HandleFunc("/train/{session}/reports", s.reports).Methods("GET")
	r.HandleFunc("/ws", s.websocket)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close disconnects all websocket clients.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		close(c)
		delete(s.clients, c)
	}
}

func logError(w http.ResponseWriter, err error) {
	log.Errorf("%v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) receive(w http.ResponseWriter, r *http.Request) {
	var rep Report
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&rep); err != nil {
		http.Error(w, "invalid report: "+err.Error(), http.StatusBadRequest)
		return
	}
	if rep.Session == "" {
		http.Error(w, "report without session", http.StatusBadRequest)
		return
	}
	if rep.Time.IsZero() {
		rep.Time = time.Now()
	}
	if err := s.storage.Put(rep); err != nil {
		logError(w, err)
		return
	}
	s.broadcast(rep)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) broadcast(rep Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c <- rep:
		default:
			// slow client, skip
		}
	}
}

func (s *Server) subscribe() chan Report {
	c := make(chan Report, 64)
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *Server) unsubscribe(c chan Report) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c)
	}
	s.mu.Unlock()
}

// websocket streams every received report as a JSON text message.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	c := s.subscribe()
	defer s.unsubscribe(c)

	// the reader notices when the client goes away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case rep, ok := <-c:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(rep); err != nil {
				log.Warnf("websocket write: %v", err)
				return
			}
		case <-gone:
			return
		}
	}
}

var pages = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Training sessions</title></head>
<body>
<h1>Training sessions</h1>
<table>
<tr><th>session</th><th>worker</th><th>epoch</th><th>reports</th><th>last update</th></tr>
{{range .}}<tr><td><a href="/train/{{.ID}}">{{.ID}}</a></td><td>{{.Worker}}</td><td>{{.Epoch}}</td><td>{{.Reports}}</td><td>{{.Last.Format "2006-01-02 15:04:05"}}</td></tr>
{{else}}<tr><td colspan="5">no sessions yet</td></tr>
{{end}}</table>
</body></html>
`))

var sessionPage = template.Must(template.New("session").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Session}}</title></head>
<body>
<h1>{{.Session}}</h1>
<p>epoch <span id="epoch">{{.Epoch}}</span> iteration <span id="iteration">{{.Iteration}}</span> score <span id="score">{{printf "%.6f" .Score}}</span></p>
<img id="plot" src="/train/{{.Session}}/score.svg">
<h2>Evaluations</h2>
<table>
<tr><th>type</th><th>epoch</th><th>mse</th><th>mae</th><th>rmse</th><th>r2</th></tr>
{{range .Evaluations}}<tr><td>{{.Type}}</td><td>{{.Epoch}}</td><td>{{printf "%.5f" (index .Metrics "mse")}}</td><td>{{printf "%.5f" (index .Metrics "mae")}}</td><td>{{printf "%.5f" (index .Metrics "rmse")}}</td><td>{{printf "%.5f" (index .Metrics "r2")}}</td></tr>
{{end}}</table>
<script>
var session = {{.Session}};
var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = function(ev) {
	var r = JSON.parse(ev.data);
	if (r.session !== session) return;
	document.getElementById("epoch").textContent = r.epoch;
	document.getElementById("iteration").textContent = r.iteration;
	document.getElementById("score").textContent = r.score.toFixed(6);
	if (r.type !== "iteration") location.reload();
	else document.getElementById("plot").src = "/train/" + session + "/score.svg?ts=" + Date.now();
};
</script>
</body></html>
`))

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.storage.Sessions()
	if err != nil {
		logError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Execute(w, sessions); err != nil {
		log.Errorf("render index: %v", err)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session"]
	reports, err := s.storage.Reports(id)
	if err != nil {
		logError(w, err)
		return
	}
	if len(reports) == 0 {
		http.NotFound(w, r)
		return
	}
	data := struct {
		Session          string
		Epoch, Iteration int
		Score            float64
		Evaluations      []Report
	}{Session: id}
	for _, rep := range reports {
		switch rep.Type {
		case IterationReport, EpochReport:
			data.Epoch, data.Iteration, data.Score = rep.Epoch, rep.Iteration, rep.Score
		case ValidationReport, TestReport:
			data.Evaluations = append(data.Evaluations, rep)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sessionPage.Execute(w, data); err != nil {
		log.Errorf("render session: %v", err)
	}
}

func (s *Server) reports(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session"]
	var types []ReportType
	for _, t := range r.URL.Query()["type"] {
		types = append(types, ReportType(t))
	}
	reports, err := s.storage.Reports(id, types...)
	if err != nil {
		logError(w, err)
		return
	}
	if reports == nil {
		reports = []Report{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reports); err != nil {
		log.Warnf("encode reports: %v", err)
	}
}

func (s *Server) scorePlot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session"]
	reports, err := s.storage.Reports(id, IterationReport, ValidationReport)
	if err != nil {
		logError(w, err)
		return
	}
	svg, err := ScorePlot(id, reports, 8, 4)
	if err != nil {
		logError(w, errors.Wrap(err, "plot score"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}
