package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/verte-zerg/sportsposter/internal/cache"
	"github.com/verte-zerg/sportsposter/internal/loader"
	"github.com/verte-zerg/sportsposter/internal/model"
	"github.com/verte-zerg/sportsposter/internal/render"
	"github.com/verte-zerg/sportsposter/internal/session"
)

const pageTitle = "My year in sports"

type unitOption struct {
	Value    string
	Label    string
	Selected bool
}

type indexPage struct {
	Title string
	Error string
}

type scopePage struct {
	Title      string
	Activities int
	Years      []int
	Year       int
	Variant    string
	Units      []unitOption
	Poster     template.HTML
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		log.Errorf("write healthz: %s", err)
	}
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	s.page(w, http.StatusOK, "index", indexPage{Title: pageTitle})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		s.metrics.IncrUpload("error")
		s.page(w, http.StatusBadRequest, "index", indexPage{Title: pageTitle, Error: "Please choose a .csv file to upload."})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.metrics.IncrUpload("error")
		s.page(w, http.StatusBadRequest, "index", indexPage{Title: pageTitle, Error: "The upload could not be read."})
		return
	}

	sess := s.sessionFor(w, r)
	sess.Upload(content)
	if _, hit := s.parses.Get(loader.Digest(content)); hit {
		s.metrics.IncrCacheHit("parse")
	} else {
		s.metrics.IncrCacheMiss("parse")
	}
	if err := sess.Validate(s.parses); err != nil {
		s.metrics.IncrUpload(uploadResult(err))
		s.page(w, http.StatusUnprocessableEntity, "index", indexPage{Title: pageTitle, Error: UploadMessage(err)})
		return
	}
	s.metrics.IncrUpload("ok")

	table := sess.Table()
	years := table.Years()
	page := scopePage{
		Title:      pageTitle,
		Activities: len(table.Records),
		Years:      years,
		Variant:    string(model.VariantYear),
		Units:      unitOptions(model.UnitKilometers),
	}
	if len(years) > 0 {
		page.Year = years[0]
	}
	s.page(w, http.StatusOK, "scope", page)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(r)
	if !ok {
		http.Error(w, "Upload an export first.", http.StatusConflict)
		return
	}
	scope, err := parseScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.SelectScope(scope); err != nil {
		writeTransitionError(w, err)
		return
	}
	fig, err := sess.Render(s.cfg.Style)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	s.metrics.IncrRender(string(scope.Variant))

	table := sess.Table()
	svg, err := s.artifact(table.Digest, scope, render.FormatSVG, sess)
	if err != nil {
		log.Errorf("render svg: %s", err)
		http.Error(w, "The poster could not be drawn.", http.StatusInternalServerError)
		return
	}
	if s.history != nil {
		_, err := s.history.InsertRender(r.Context(), model.RenderRecord{
			Variant:      scope.Variant,
			ScopeLabel:   scope.Label(),
			UploadDigest: table.Digest,
			Activities:   sess.Activities(),
		})
		if err != nil {
			log.Warnf("record render: %s", err)
		}
	}
	log.WithFields(log.Fields{"scope": scope.Label(), "panels": len(fig.Panels)}).Debug("poster rendered")

	s.page(w, http.StatusOK, "scope", scopePage{
		Title:      pageTitle,
		Activities: len(table.Records),
		Years:      table.Years(),
		Year:       scope.Year,
		Variant:    string(scope.Variant),
		Units:      unitOptions(scope.Unit),
		Poster:     template.HTML(stripProlog(svg)),
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	mime := render.MIME(format)
	if mime == "" {
		http.Error(w, "Unknown format.", http.StatusNotFound)
		return
	}
	sess, ok := s.existingSession(r)
	if !ok || sess.State() != session.Rendered {
		http.Error(w, "Create a poster first.", http.StatusConflict)
		return
	}
	scope := sess.Scope()
	data, err := s.artifact(sess.Table().Digest, scope, format, sess)
	if err != nil {
		log.Errorf("render %s: %s", format, err)
		http.Error(w, "The poster could not be exported.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.FileName(scope, format)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		log.Debugf("write download: %s", err)
	}
}

// artifact returns the encoded poster, rendering it on a cache miss.
func (s *Server) artifact(digest string, scope model.Scope, format string, sess *session.Session) ([]byte, error) {
	key := cache.ArtifactKey(digest, scope, format)
	if data, ok := s.artifacts.Get(key); ok {
		s.metrics.IncrCacheHit("artifacts")
		return data, nil
	}
	s.metrics.IncrCacheMiss("artifacts")

	fig := sess.Figure()
	if fig == nil {
		return nil, fmt.Errorf("no figure for %s", scope.Label())
	}
	start := time.Now()
	data, err := render.Encode(fig, format, s.cfg.Scale)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordExport(format, time.Since(start))
	if err := s.artifacts.Set(key, data); err != nil {
		log.Warnf("cache %s: %s", format, err)
	}
	return data, nil
}

func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	if sess, ok := s.existingSession(r); ok {
		return sess
	}
	id, sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.SessionTTL / time.Second),
	})
	return sess
}

func (s *Server) existingSession(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.Get(c.Value)
}

func (s *Server) page(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		log.Errorf("execute template %s: %s", name, err)
	}
}

func parseScope(r *http.Request) (model.Scope, error) {
	switch model.Variant(r.FormValue("variant")) {
	case model.VariantMonth:
		return model.Scope{Variant: model.VariantMonth}, nil
	case model.VariantYear, "":
		year, err := strconv.Atoi(r.FormValue("year"))
		if err != nil {
			return model.Scope{}, fmt.Errorf("invalid year %q", r.FormValue("year"))
		}
		unit, err := model.ParseDistanceUnit(r.FormValue("unit"))
		if err != nil {
			return model.Scope{}, err
		}
		return model.Scope{Variant: model.VariantYear, Year: year, Unit: unit}, nil
	default:
		return model.Scope{}, fmt.Errorf("unknown poster %q", r.FormValue("variant"))
	}
}

func unitOptions(selected model.DistanceUnit) []unitOption {
	out := make([]unitOption, 0, len(model.Units))
	for _, u := range model.Units {
		out = append(out, unitOption{Value: string(u), Label: u.Label(), Selected: u == selected})
	}
	return out
}

func writeTransitionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrInvalidTransition) {
		http.Error(w, "Upload an export first.", http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// UploadMessage turns a validation error into the text shown to the user.
func UploadMessage(err error) string {
	var schemaErr *loader.SchemaError
	var rowErr *loader.RowError
	switch {
	case errors.Is(err, loader.ErrUnparseable):
		return "Whoops, incorrect file format. Make sure to upload a .csv file to use this app."
	case errors.As(err, &schemaErr):
		return "Whoops, your dataset doesn't look quite right ...\n" + schemaErr.Error()
	case errors.As(err, &rowErr):
		return "Whoops, a row could not be read: " + rowErr.Error()
	default:
		return "The upload could not be processed."
	}
}

func uploadResult(err error) string {
	var schemaErr *loader.SchemaError
	switch {
	case errors.Is(err, loader.ErrUnparseable):
		return "unparseable"
	case errors.As(err, &schemaErr):
		return "schema"
	default:
		return "error"
	}
}

// stripProlog drops the XML declaration so the SVG can be inlined in HTML.
func stripProlog(svg []byte) string {
	const prolog = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	if len(svg) >= len(prolog) && string(svg[:len(prolog)]) == prolog {
		return string(svg[len(prolog):])
	}
	return string(svg)
}
