package sqlstore

import "github.com/goliatone/go-accountlink/core"

var (
	_ core.AccountStore           = (*AccountStore)(nil)
	_ core.FlagStore              = (*FlagStore)(nil)
	_ core.FlagStore              = (*CachedFlagStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
