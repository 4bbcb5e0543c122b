package core

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestSetFlag_ResolvesBothIdentifiers(t *testing.T) {
	fixture := newServiceFixture(t, flagsEnabledConfig())
	fixture.seedAccount(t, "ext_1", time.Now().UTC())

	if err := fixture.service.SetFlag(context.Background(), KeyExternal, "ext_1", true); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}

	// Written by external id, readable by provider account id.
	flag, err := fixture.flags.Get(context.Background(), KeyProviderAccount, "prov_ext_1")
	if err != nil {
		t.Fatalf("flag not addressable by provider account id: %v", err)
	}
	if !flag.Granted {
		t.Fatal("granted flag not persisted")
	}
	if flag.ExternalID != "ext_1" || flag.ProviderAccountID != "prov_ext_1" {
		t.Fatalf("flag identifiers not both filled: %+v", flag)
	}
}

func TestSetFlag_ByProviderAccountID(t *testing.T) {
	fixture := newServiceFixture(t, flagsEnabledConfig())
	fixture.seedAccount(t, "ext_1", time.Now().UTC())

	if err := fixture.service.SetFlag(context.Background(), KeyProviderAccount, "prov_ext_1", true); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	granted, err := fixture.service.FlagGranted(context.Background(), KeyExternal, "ext_1")
	if err != nil {
		t.Fatalf("FlagGranted() error = %v", err)
	}
	if !granted {
		t.Fatal("flag set by provider id not readable by external id")
	}
}

func TestSetFlag_Failures(t *testing.T) {
	t.Run("feature disabled", func(t *testing.T) {
		fixture := newServiceFixture(t, Config{})
		err := fixture.service.SetFlag(context.Background(), KeyExternal, "ext_1", true)
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			t.Fatalf("expected rich error, got %v", err)
		}
		if rich.TextCode != ServiceErrorFeatureDisabled || rich.Code != 405 {
			t.Fatalf("unexpected error shape: text_code=%s code=%d", rich.TextCode, rich.Code)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		fixture := newServiceFixture(t, flagsEnabledConfig())
		err := fixture.service.SetFlag(context.Background(), KeyExternal, "ext_missing", true)
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.TextCode != ServiceErrorAccountNotFound {
			t.Fatalf("expected %s, got %v", ServiceErrorAccountNotFound, err)
		}
	})

	t.Run("invalid key kind", func(t *testing.T) {
		fixture := newServiceFixture(t, flagsEnabledConfig())
		err := fixture.service.SetFlag(context.Background(), AccountKeyKind("bogus"), "ext_1", true)
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.TextCode != ServiceErrorBadInput {
			t.Fatalf("expected %s, got %v", ServiceErrorBadInput, err)
		}
	})

	t.Run("blank id", func(t *testing.T) {
		fixture := newServiceFixture(t, flagsEnabledConfig())
		err := fixture.service.SetFlag(context.Background(), KeyExternal, "  ", true)
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.TextCode != ServiceErrorBadInput {
			t.Fatalf("expected %s, got %v", ServiceErrorBadInput, err)
		}
	})
}

func TestFlagGranted_MissingRowDefaultsToGranted(t *testing.T) {
	fixture := newServiceFixture(t, flagsEnabledConfig())

	granted, err := fixture.service.FlagGranted(context.Background(), KeyExternal, "ext_without_flag")
	if err != nil {
		t.Fatalf("FlagGranted() error = %v", err)
	}
	if !granted {
		t.Fatal("missing flag row must read as granted")
	}
}

func TestFlagGranted_ReadsStoredValue(t *testing.T) {
	fixture := newServiceFixture(t, flagsEnabledConfig())
	fixture.seedAccount(t, "ext_1", time.Now().UTC())

	if err := fixture.flags.Set(context.Background(), DistributionFlag{
		ProviderAccountID: "prov_ext_1",
		ExternalID:        "ext_1",
		Granted:           false,
	}); err != nil {
		t.Fatalf("seed flag: %v", err)
	}

	granted, err := fixture.service.FlagGranted(context.Background(), KeyProviderAccount, "prov_ext_1")
	if err != nil {
		t.Fatalf("FlagGranted() error = %v", err)
	}
	if granted {
		t.Fatal("ungranted flag read as granted")
	}

	if err := fixture.service.SetFlag(context.Background(), KeyExternal, "ext_1", true); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	granted, err = fixture.service.FlagGranted(context.Background(), KeyProviderAccount, "prov_ext_1")
	if err != nil {
		t.Fatalf("FlagGranted() error = %v", err)
	}
	if !granted {
		t.Fatal("granted flag read as ungranted")
	}
}

func TestResetAllFlags(t *testing.T) {
	fixture := newServiceFixture(t, flagsEnabledConfig())
	fixture.seedAccount(t, "ext_1", time.Now().UTC())
	fixture.seedAccount(t, "ext_2", time.Now().UTC())

	for _, id := range []string{"ext_1", "ext_2"} {
		if err := fixture.service.SetFlag(context.Background(), KeyExternal, id, true); err != nil {
			t.Fatalf("SetFlag(%s) error = %v", id, err)
		}
	}

	if err := fixture.service.ResetAllFlags(context.Background()); err != nil {
		t.Fatalf("ResetAllFlags() error = %v", err)
	}

	for _, id := range []string{"ext_1", "ext_2"} {
		granted, err := fixture.service.FlagGranted(context.Background(), KeyExternal, id)
		if err != nil {
			t.Fatalf("FlagGranted(%s) error = %v", id, err)
		}
		if granted {
			t.Fatalf("flag %s still granted after reset", id)
		}
	}
}

func TestResetAllFlags_FeatureDisabled(t *testing.T) {
	fixture := newServiceFixture(t, Config{})
	err := fixture.service.ResetAllFlags(context.Background())
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ServiceErrorFeatureDisabled {
		t.Fatalf("expected %s, got %v", ServiceErrorFeatureDisabled, err)
	}
}
