package xslog

import (
	"log/slog"
	"time"

	"github.com/mrcode/nightscout-widget/internal/version"
)

func Error(err error) slog.Attr {
	const errorKey = "error"
	return slog.String(errorKey, err.Error())
}

func Count(count int) slog.Attr {
	const countKey = "count"
	return slog.Int(countKey, count)
}

func URL(u string) slog.Attr {
	const urlKey = "url"
	return slog.String(urlKey, u)
}

func HTTPStatus(status int) slog.Attr {
	const statusKey = "status"
	return slog.Int(statusKey, status)
}

func Duration(d time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, d)
}

func Key(key string) slog.Attr {
	const keyKey = "key"
	return slog.String(keyKey, key)
}

func Backend(name string) slog.Attr {
	const backendKey = "backend"
	return slog.String(backendKey, name)
}

func MgDl(v int) slog.Attr {
	const mgdlKey = "mgdl"
	return slog.Int(mgdlKey, v)
}

func SampleID(id string) slog.Attr {
	const sampleIDKey = "sample_id"
	return slog.String(sampleIDKey, id)
}

func State(state string) slog.Attr {
	const stateKey = "state"
	return slog.String(stateKey, state)
}

func Version() slog.Attr {
	const versionKey = "version"
	return slog.String(versionKey, version.Get())
}
