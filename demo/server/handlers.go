package main

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/tingold/geoshape"
	"github.com/tingold/geoshape/fgb"
	"github.com/tingold/geoshape/index"
)

// server holds one layer in every served form.
type server struct {
	properties []*geoshape.Object
	encoder    *geoshape.Encoder
	index      *index.Index

	geojsonData []byte
	fgbData     []byte
}

func newServer(shapes []geoshape.Shape, properties []*geoshape.Object, opts *geoshape.Options, fgbOpts *fgb.Options) (*server, error) {
	s := &server{
		properties: properties,
		encoder:    geoshape.NewEncoder(opts),
		index:      index.New(),
	}

	if _, err := s.index.Insert(shapes...); err != nil {
		return nil, err
	}

	fc, err := s.encoder.FeatureCollection(shapes, properties)
	if err != nil {
		return nil, err
	}
	if s.geojsonData, err = fc.Marshal(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fgb.Write(&buf, shapes, properties, fgbOpts); err != nil {
		return nil, err
	}
	s.fgbData = buf.Bytes()

	return s, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/shapes.geojson", s.handleGeoJSON)
	mux.HandleFunc("/shapes.fgb", s.handleFGB)
	mux.HandleFunc("/search", s.handleSearch)
	return mux
}

func (s *server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(s.geojsonData)
}

func (s *server) handleFGB(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(s.fgbData)
}

// handleSearch answers ?bbox=minLon,minLat,maxLon,maxLat or
// ?near=lon,lat[&k=n] with a FeatureCollection of the matching shapes.
func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		results []index.Entry
		err     error
	)
	stats := searchStatsFrom(r)

	switch {
	case query.Has("bbox"):
		stats.mode = "bbox"
		var b orb.Bound
		if b, err = index.ParseBound(query.Get("bbox")); err == nil {
			results, err = s.index.Search(b)
		}
	case query.Has("near"):
		stats.mode = "near"
		results, err = s.nearest(query.Get("near"), query.Get("k"))
	default:
		http.Error(w, "bbox or near parameter required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stats.results = len(results)

	shapes := make([]geoshape.Shape, len(results))
	properties := make([]*geoshape.Object, len(results))
	for i, e := range results {
		shapes[i] = e.Shape
		properties[i] = s.properties[e.ID]
	}

	fc, err := s.encoder.FeatureCollection(shapes, properties)
	if err == nil {
		var data []byte
		if data, err = fc.Marshal(); err == nil {
			w.Header().Set("Content-Type", "application/geo+json")
			w.Header().Set("Access-Control-Allow-Origin", "*")
			_, _ = w.Write(data)
			return
		}
	}

	log.Error().Err(err).Msg("Failed to encode search results")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *server) nearest(near, k string) ([]index.Entry, error) {
	parts := strings.Split(near, ",")
	pair := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		pair[i] = f
	}
	c, err := geoshape.ToCoordinate(pair)
	if err != nil {
		return nil, err
	}

	n := 5
	if k != "" {
		if n, err = strconv.Atoi(k); err != nil {
			return nil, err
		}
	}

	return s.index.Nearest(c, n), nil
}

// searchStats is filled in by handleSearch and logged by RequestLogger.
type searchStats struct {
	mode    string
	results int
}

type searchStatsKey struct{}

// searchStatsFrom returns the stats slot RequestLogger attached to r, or a
// throwaway one when the handler runs without the middleware.
func searchStatsFrom(r *http.Request) *searchStats {
	if stats, ok := r.Context().Value(searchStatsKey{}).(*searchStats); ok {
		return stats
	}
	return &searchStats{}
}

// RequestLogger logs every request with its status, response size and,
// for searches, the query kind and match count.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		stats := &searchStats{}
		r = r.WithContext(context.WithValue(r.Context(), searchStatsKey{}, stats))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		event := log.Info()
		if rec.status >= http.StatusBadRequest {
			event = log.Warn()
		}
		event = event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Str("ip", r.RemoteAddr)
		if stats.mode != "" {
			event = event.
				Str("search", stats.mode).
				Int("results", stats.results)
		}
		event.
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}
