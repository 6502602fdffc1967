// Package hostbus exposes the widget's reload action on the session D-Bus
package hostbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// Bus coordinates of the running host
const (
	ServiceName = "io.github.mrcode.NightscoutWidget"
	Interface   = "io.github.mrcode.NightscoutWidget"
	ObjectPath  = dbus.ObjectPath("/io/github/mrcode/NightscoutWidget")
)

const introspection = `
<node>
	<interface name="` + Interface + `">
		<method name="Reload">
			<arg direction="out" type="s" name="state"/>
		</method>
	</interface>` + introspect.IntrospectDataString + `</node>`

// ErrNameTaken is returned when another host already owns the service name
var ErrNameTaken = errors.New("dbus service name already taken")

// Reloader forces a refresh and returns the new snapshot
type Reloader interface {
	Reload(ctx context.Context) models.WidgetSnapshot
}

// handler is the exported D-Bus object. Methods must return *dbus.Error last.
type handler struct {
	ctx      context.Context
	reloader Reloader
	logger   *slog.Logger
}

// Reload refreshes the widget and replies with the resulting snapshot state
func (h *handler) Reload() (string, *dbus.Error) {
	snapshot := h.reloader.Reload(h.ctx)
	state := snapshot.State()
	h.logger.InfoContext(h.ctx, "reload requested over dbus", xslog.State(string(state)))
	return string(state), nil
}

// Service is an exported reload endpoint
type Service struct {
	conn  *dbus.Conn
	owned bool
}

// Export registers the reload object on conn without claiming the service name
func Export(ctx context.Context, conn *dbus.Conn, reloader Reloader, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{ctx: ctx, reloader: reloader, logger: logger}

	if err := conn.Export(h, ObjectPath, Interface); err != nil {
		return fmt.Errorf("exporting reload object: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspection), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("exporting introspection: %w", err)
	}
	return nil
}

// Serve connects to the session bus, exports the reload object and claims ServiceName.
// ctx bounds the refreshes triggered by callers.
func Serve(ctx context.Context, reloader Reloader, logger *slog.Logger) (*Service, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	if err := Export(ctx, conn, reloader, logger); err != nil {
		_ = conn.Close()
		return nil, err
	}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("requesting name %s: %w", ServiceName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, ErrNameTaken
	}

	return &Service{conn: conn, owned: true}, nil
}

// Close releases the service name and the bus connection
func (s *Service) Close() error {
	if s.owned {
		_, _ = s.conn.ReleaseName(ServiceName)
		s.owned = false
	}
	return s.conn.Close()
}

// Call invokes Reload on dest over conn and returns the reported snapshot state
func Call(ctx context.Context, conn *dbus.Conn, dest string) (models.SnapshotState, error) {
	var state string
	obj := conn.Object(dest, ObjectPath)
	if err := obj.CallWithContext(ctx, Interface+".Reload", 0).Store(&state); err != nil {
		return "", fmt.Errorf("calling %s.Reload: %w", Interface, err)
	}
	return models.SnapshotState(state), nil
}

// CallReload asks a running host on the session bus to refresh
func CallReload(ctx context.Context) (models.SnapshotState, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return "", fmt.Errorf("connecting to session bus: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	return Call(ctx, conn, ServiceName)
}
