package main

import (
	"fmt"

	"github.com/hubert-project/hubert/dhtkv"
	"github.com/hubert-project/hubert/hybrid"
	"github.com/hubert-project/hubert/ipfskv"
	"github.com/hubert-project/hubert/serverkv/client"
	"github.com/hubert-project/hubert/store"
)

var (
	backendName string
	serverURL   string
	verbose     bool
)

// inMemoryDHT and inMemoryIPFS back the dht/ipfs/hybrid CLI backends.
// Wiring a real mainline-DHT client or IPFS daemon is out of scope
// (spec.md §1 treats both as external collaborators specified only by
// interface), so the CLI exercises dhtkv.InMemoryClient and
// ipfskv.InMemoryDaemon directly. This means values published under
// --backend dht, --backend ipfs, or --backend hybrid are only visible to
// other commands sharing this same process — there is no cross-process
// persistence for them. --backend server is the one CLI path with a real
// external process (the hubert server subcommand) on the other end.
var (
	inMemoryDHT  = dhtkv.NewInMemoryClient()
	inMemoryIPFS = ipfskv.NewInMemoryDaemon()
)

// dhtOptions builds dhtkv.Options from --config's [dht] section, if set.
func dhtOptions() []dhtkv.Option {
	if appConfig == nil || appConfig.DHT == nil {
		return nil
	}
	var opts []dhtkv.Option
	if appConfig.DHT.MaxValueSize > 0 {
		opts = append(opts, dhtkv.WithMaxValueSize(appConfig.DHT.MaxValueSize))
	}
	if appConfig.DHT.Salt != "" {
		opts = append(opts, dhtkv.WithSalt([]byte(appConfig.DHT.Salt)))
	}
	return opts
}

// ipfsOptions builds ipfskv.Options from --config's [ipfs] section, if set.
func ipfsOptions() []ipfskv.Option {
	if appConfig == nil || appConfig.IPFS == nil {
		return nil
	}
	var opts []ipfskv.Option
	if appConfig.IPFS.MaxValueSize > 0 {
		opts = append(opts, ipfskv.WithMaxValueSize(appConfig.IPFS.MaxValueSize))
	}
	if appConfig.IPFS.DefaultLifetime > 0 {
		opts = append(opts, ipfskv.WithDefaultLifetime(appConfig.IPFS.DefaultLifetime))
	}
	opts = append(opts, ipfskv.WithPin(appConfig.IPFS.Pin))
	return opts
}

// hybridOptions builds hybrid.Options from --config's [hybrid] section, if
// set.
func hybridOptions() []hybrid.Option {
	if appConfig == nil || appConfig.Hybrid == nil || appConfig.Hybrid.Threshold <= 0 {
		return nil
	}
	return []hybrid.Option{hybrid.WithThreshold(appConfig.Hybrid.Threshold)}
}

// openBackend builds the store.Store selected by --backend, seeded by
// --config's matching section when one was loaded (config.Config, per
// spec.md's ambient-configuration section).
func openBackend() (store.Store, error) {
	switch backendName {
	case "dht":
		return dhtkv.New(inMemoryDHT, dhtOptions()...), nil
	case "ipfs":
		return ipfskv.New(inMemoryIPFS, ipfsOptions()...), nil
	case "hybrid":
		dht := dhtkv.New(inMemoryDHT, dhtOptions()...)
		ipfs := ipfskv.New(inMemoryIPFS, ipfsOptions()...)
		return hybrid.New(dht, ipfs, hybridOptions()...), nil
	case "server":
		return client.New(serverURL), nil
	default:
		return nil, fmt.Errorf("unknown --backend %q (want dht, ipfs, hybrid, or server)", backendName)
	}
}
