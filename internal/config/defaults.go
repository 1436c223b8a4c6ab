package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/brunocuevas/nsdb/internal/phylo"
)

// Sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.reference", "reference.csv")
	v.SetDefault("data.chains", "chain-reference.csv")
	v.SetDefault("data.phylo", "phylogenetic-relationships.csv")
	v.SetDefault("data.tree", "AGNifAlign103.asr.tre")

	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.sqlite.path", ":memory:")
	v.SetDefault("catalog.postgres.dsn", "")

	v.SetDefault("tree.outgroup", "BchChl")
	v.SetDefault("tree.reference_tips", phylo.DefaultReferenceTips)
	v.SetDefault("tree.reference_nodes", phylo.DefaultReferenceNodes)

	v.SetDefault("structures.driver", "s3")
	v.SetDefault("structures.bucket", "nsdb")
	v.SetDefault("structures.region", "auto")
	v.SetDefault("structures.endpoint", "")
	v.SetDefault("structures.access_key_id", "")
	v.SetDefault("structures.secret_access_key", "")
	v.SetDefault("structures.path_style", false)
	v.SetDefault("structures.fs_root", "")
	v.SetDefault("structures.timeout", 10*time.Second)
	v.SetDefault("structures.retries", 1)

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.debug_vars", false)
	v.SetDefault("server.trace", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("filters.expose_tiers", true)
}
