// Package catalog records converted spectroscopy maps in a ClickHouse database.
package catalog

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/oklog/ulid/v2"
)

// DefaultDatabase is the SQL name of the catalog database.
const DefaultDatabase = "rhkstm"

const timeFormat = "2006-01-02 15:04:05.000000"

// inserter is the part of clickhouse.Conn the catalog uses.
type inserter interface {
	AsyncInsert(ctx context.Context, query string, wait bool, args ...any) error
	Close() error
}

// Options says where the catalog server lives. Username and Password fall back
// to the RHKSTM_DB_USER and RHKSTM_DB_PASSWORD environment variables.
type Options struct {
	Addr     []string
	Database string
	Username string
	Password string
	Version  string // reported in the sessions table
}

// Catalog is a connection to the ClickHouse catalog. A nil *Catalog, or one
// whose connection failed, silently ignores every Record.
type Catalog struct {
	conn    inserter
	err     error
	session *SessionMessage
}

// IsConnected reports whether records will reach the database.
func (c *Catalog) IsConnected() bool {
	return (c != nil) && (c.conn != nil) && (c.err == nil)
}

// Err returns the error that disconnected the catalog, if any.
func (c *Catalog) Err() error {
	if c == nil {
		return nil
	}
	return c.err
}

// Connect opens and pings the ClickHouse server named in opt, then logs the
// start of a session. On failure it returns the error together with a
// disconnected Catalog that is safe to use.
func Connect(ctx context.Context, opt Options) (*Catalog, error) {
	if opt.Database == "" {
		opt.Database = DefaultDatabase
	}
	if opt.Username == "" {
		opt.Username = os.Getenv("RHKSTM_DB_USER")
	}
	if opt.Password == "" {
		opt.Password = os.Getenv("RHKSTM_DB_PASSWORD")
	}
	if len(opt.Addr) == 0 {
		opt.Addr = []string{"localhost:9000"}
	}
	client := clickhouse.ClientInfo{
		Products: []struct {
			Name    string
			Version string
		}{
			{Name: "rhkstm", Version: opt.Version},
		},
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: opt.Addr,
		Auth: clickhouse.Auth{
			Database: opt.Database,
			Username: opt.Username,
			Password: opt.Password,
		},
		ClientInfo: client,
	})
	if err != nil {
		return &Catalog{err: err}, err
	}
	if err := conn.Ping(ctx); err != nil {
		if exception, ok := err.(*clickhouse.Exception); ok {
			err = fmt.Errorf("clickhouse exception [%d] %s: %w", exception.Code, exception.Message, err)
		}
		conn.Close()
		return &Catalog{err: err}, err
	}
	c := newCatalog(conn, opt.Version)
	return c, c.logSession(ctx)
}

func newCatalog(conn inserter, version string) *Catalog {
	host, err := os.Hostname()
	if err != nil {
		host = "host not detected"
	}
	return &Catalog{
		conn: conn,
		session: &SessionMessage{
			ID:        ulid.Make().String(),
			Hostname:  host,
			Version:   version,
			GoVersion: runtime.Version(),
			Start:     time.Now(),
		},
	}
}

// SessionID returns the ID of the session row, or "" when disconnected.
func (c *Catalog) SessionID() string {
	if !c.IsConnected() {
		return ""
	}
	return c.session.ID
}

func (c *Catalog) logSession(ctx context.Context) error {
	if !c.IsConnected() {
		return c.Err()
	}
	const nowait = false
	s := c.session
	var end string
	if !s.End.IsZero() {
		end = s.End.Format(timeFormat)
	}
	if err := c.conn.AsyncInsert(ctx, `INSERT INTO sessions VALUES (?, ?, ?, ?, ?, ?)`, nowait,
		s.ID, s.Hostname, s.Version, s.GoVersion, s.Start.Format(timeFormat), end,
	); err != nil {
		c.err = fmt.Errorf("insert into sessions: %w", err)
		return c.err
	}
	return nil
}

// Record stores m in the conversions table. It fills in m.ID and m.SessionID
// when they are empty. Recording to a disconnected catalog does nothing.
func (c *Catalog) Record(ctx context.Context, m *FileMessage) error {
	if !c.IsConnected() || m == nil {
		return nil
	}
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.SessionID == "" {
		m.SessionID = c.session.ID
	}
	const nowait = false
	if err := c.conn.AsyncInsert(ctx, `INSERT INTO conversions VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, nowait,
		m.ID, m.SessionID, m.RunID, m.Source, m.Output, m.Format,
		m.DataType, m.SpecType, m.Samples, m.MapSize, m.Repetitions, m.Alternate,
		m.Start.Format(timeFormat), m.End.Format(timeFormat),
	); err != nil {
		c.err = fmt.Errorf("insert into conversions: %w", err)
		return c.err
	}
	return nil
}

// Close ends the session and releases the connection.
func (c *Catalog) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	var err error
	if c.IsConnected() {
		c.session.End = time.Now()
		err = c.logSession(context.Background())
	}
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	c.conn = nil
	return err
}
