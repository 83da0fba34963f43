// Simulator is an in-memory stand-in for the production backend. It speaks
// the same action-GET / operation-POST contract, so the client can be
// developed and demoed without touching real company data. FAIL_RATE makes
// it drop requests randomly to exercise the offline queue.
package main

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taxilog/taxilog/internal/models"
)

type response struct {
	Status        string                `json:"status"`
	Message       string                `json:"message,omitempty"`
	LoggedIn      bool                  `json:"loggedIn,omitempty"`
	Trips         []models.Trip         `json:"trips,omitempty"`
	Expenses      []models.Expense      `json:"expenses,omitempty"`
	AssignedTrips []models.AssignedTrip `json:"assignedTrips,omitempty"`
	Drivers       []string              `json:"drivers,omitempty"`
	Plates        []string              `json:"plates,omitempty"`
	Rentals       []models.CarRental    `json:"rentals,omitempty"`
}

type server struct {
	mu       sync.Mutex
	accounts map[string]string
	trips    map[string]models.Trip
	expenses map[string]models.Expense
	rentals  map[string]models.CarRental
	assigned map[string]models.AssignedTrip
	plates   []string
	failRate float64
}

func newServer(failRate float64) *server {
	s := &server{
		accounts: map[string]string{
			"anna": "secret",
			"ben":  "secret",
			"chef": "chef",
		},
		trips:    map[string]models.Trip{},
		expenses: map[string]models.Expense{},
		rentals:  map[string]models.CarRental{},
		assigned: map[string]models.AssignedTrip{},
		plates:   []string{"B-TX 1234", "B-TX 5678"},
		failRate: failRate,
	}
	s.seed()
	return s
}

func (s *server) seed() {
	now := time.Now().UTC()
	trip := models.Trip{
		ID:               models.NewRecordID(now.Add(-2 * time.Hour)),
		Username:         "anna",
		LicensePlate:     "B-TX 1234",
		Start:            "Hauptbahnhof",
		Destination:      "Flughafen",
		Payment:          models.Payment{Type: models.PaymentCash, Amount: 42.50},
		NumberOfDrivers:  1,
		CollectedPayment: true,
	}
	s.trips[trip.ID] = trip

	at := models.AssignedTrip{
		ID:          models.NewRecordID(now.Add(-time.Hour)),
		AssignedTo:  "anna",
		Start:       "Zoo",
		Destination: "Messe",
		Amount:      25,
		PickupTime:  now.Add(3 * time.Hour),
		Status:      models.AssignedPending,
	}
	s.assigned[at.ID] = at
}

func (s *server) handle(w http.ResponseWriter, r *http.Request) {
	if s.failRate > 0 && rand.Float64() < s.failRate {
		log.Warn("Simulated outage, dropping request")
		http.Error(w, "simulated outage", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleAction(w, r)
	case http.MethodPost:
		s.handleOp(w, r)
	default:
		writeJSON(w, response{Status: "error", Message: "unsupported method"})
	}
}

func (s *server) handleAction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := r.URL.Query().Get("action")
	user := r.URL.Query().Get("user")
	log.WithFields(log.Fields{"action": action, "user": user}).Info("GET")

	switch action {
	case "login":
		pass, ok := s.accounts[user]
		writeJSON(w, response{Status: "success", LoggedIn: ok && pass == r.URL.Query().Get("pass")})
	case "getData":
		writeJSON(w, response{
			Status:        "success",
			Trips:         s.tripsFor(user),
			Expenses:      s.expensesFor(user),
			AssignedTrips: s.assignedFor(user),
			Plates:        s.plates,
		})
	case "getCockpitData":
		if user != "chef" {
			writeJSON(w, response{Status: "error", Message: "cockpit is restricted"})
			return
		}
		writeJSON(w, response{
			Status:   "success",
			Drivers:  s.driverNames(),
			Trips:    s.tripsFor(""),
			Expenses: s.expensesFor(""),
			Rentals:  s.allRentals(),
			Plates:   s.plates,
		})
	case "getCarRentals":
		writeJSON(w, response{Status: "success", Rentals: s.allRentals()})
	default:
		writeJSON(w, response{Status: "error", Message: "unknown action " + action})
	}
}

func (s *server) handleOp(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, response{Status: "error", Message: "unreadable body"})
		return
	}
	var head struct {
		DataType     string `json:"dataType"`
		Username     string `json:"username"`
		ID           string `json:"id"`
		LicensePlate string `json:"licensePlate"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		writeJSON(w, response{Status: "error", Message: "malformed body"})
		return
	}
	log.WithFields(log.Fields{"dataType": head.DataType, "user": head.Username, "id": head.ID}).Info("POST")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch models.OpType(head.DataType) {
	case models.OpTrip:
		var t models.Trip
		if err := json.Unmarshal(body, &t); err != nil {
			writeJSON(w, response{Status: "error", Message: "malformed trip"})
			return
		}
		t.SyncStatus = ""
		s.trips[t.ID] = t
	case models.OpExpense:
		var e models.Expense
		if err := json.Unmarshal(body, &e); err != nil {
			writeJSON(w, response{Status: "error", Message: "malformed expense"})
			return
		}
		e.SyncStatus = ""
		s.expenses[e.ID] = e
	case models.OpCarRental:
		var cr models.CarRental
		if err := json.Unmarshal(body, &cr); err != nil {
			writeJSON(w, response{Status: "error", Message: "malformed rental"})
			return
		}
		cr.SyncStatus = ""
		s.rentals[cr.ID] = cr
	case models.OpAssignedTripStatus:
		var upd struct {
			ID     string                    `json:"id"`
			Status models.AssignedTripStatus `json:"status"`
		}
		if err := json.Unmarshal(body, &upd); err != nil {
			writeJSON(w, response{Status: "error", Message: "malformed status update"})
			return
		}
		at, ok := s.assigned[upd.ID]
		if !ok {
			writeJSON(w, response{Status: "error", Message: "unknown assigned trip " + upd.ID})
			return
		}
		at.Status = upd.Status
		s.assigned[upd.ID] = at
	case models.OpSupportTicket:
		var t models.SupportTicket
		if err := json.Unmarshal(body, &t); err != nil {
			writeJSON(w, response{Status: "error", Message: "malformed ticket"})
			return
		}
		log.WithFields(log.Fields{"from": t.Username, "subject": t.Subject}).Info("Support ticket")
	case models.OpAddPlate:
		s.plates = appendUnique(s.plates, head.LicensePlate)
	case models.OpDeletePlate:
		s.plates = remove(s.plates, head.LicensePlate)
	default:
		writeJSON(w, response{Status: "error", Message: "unknown dataType " + head.DataType})
		return
	}
	writeJSON(w, response{Status: "success"})
}

func (s *server) tripsFor(user string) []models.Trip {
	out := []models.Trip{}
	for _, t := range s.trips {
		if user == "" || t.Username == user {
			out = append(out, t)
		}
	}
	return out
}

func (s *server) expensesFor(user string) []models.Expense {
	out := []models.Expense{}
	for _, e := range s.expenses {
		if user == "" || e.Username == user {
			out = append(out, e)
		}
	}
	return out
}

func (s *server) assignedFor(user string) []models.AssignedTrip {
	out := []models.AssignedTrip{}
	for _, a := range s.assigned {
		if a.AssignedTo == user {
			out = append(out, a)
		}
	}
	return out
}

func (s *server) allRentals() []models.CarRental {
	out := []models.CarRental{}
	for _, r := range s.rentals {
		out = append(out, r)
	}
	return out
}

func (s *server) driverNames() []string {
	out := []string{}
	for name := range s.accounts {
		if name != "chef" {
			out = append(out, name)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.WithError(err).Error("Write response")
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	failRate := 0.0
	if v := os.Getenv("FAIL_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.WithField("value", v).Fatal("FAIL_RATE must be a float between 0 and 1")
		}
		failRate = f
	}

	srv := newServer(failRate)
	http.HandleFunc("/", srv.handle)
	log.WithFields(log.Fields{"port": port, "failRate": failRate}).Info("Simulator listening")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
