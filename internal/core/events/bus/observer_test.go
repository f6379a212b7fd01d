package bus

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/observability/log"
)

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := New()
	b.AddObserver(NewLogObserver(log.NewWithCore(core)))

	_, _ = b.Subscribe(EventAssetLoaded, func(Event) error { return nil })
	_, _ = b.Subscribe(EventAssetInvalid, func(Event) error { return errors.New("handler broke") })

	_ = b.Publish(NewAssetEvent(EventAssetLoaded, "runtime", 1, asset.TypeFont, nil))
	_ = b.Publish(NewAssetEvent(EventAssetInvalid, "runtime", 2, asset.TypeFont, nil))

	if n := logs.FilterMessage("event delivered").Len(); n != 1 {
		t.Fatalf("delivered logs = %d, want 1", n)
	}
	failed := logs.FilterMessage("event handlers failed").All()
	if len(failed) != 1 || failed[0].Level != zapcore.WarnLevel {
		t.Fatalf("failed logs = %+v", failed)
	}
	if m := b.GetMetrics(); m.Published != 2 || m.Errors != 1 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestHasAssetHandle(t *testing.T) {
	if HasAssetHandle(NewAssetEvent(EventAssetInvalid, "runtime", asset.NullHandle, asset.TypeScene, nil)) {
		t.Fatal("null handle passed")
	}
	if !HasAssetHandle(NewAssetEvent(EventAssetLoaded, "runtime", 7, asset.TypeScene, nil)) {
		t.Fatal("real handle dropped")
	}
	if !HasAssetHandle(NewEvent("other", "runtime", nil)) {
		t.Fatal("non-asset event dropped")
	}
}
