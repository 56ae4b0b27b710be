// Command chrd runs a Chronodrachma node: chain store, mempool, network
// worker pool, and optionally a miner and transaction generator, fronted
// by an HTTP control surface. It also carries a small CLI wallet so the
// control surface has a client.
package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chronodrachma/chrd/pkg/config"
	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/types"
	"github.com/chronodrachma/chrd/pkg/generator"
	"github.com/chronodrachma/chrd/pkg/miner"
	"github.com/chronodrachma/chrd/pkg/p2p"
	"github.com/chronodrachma/chrd/pkg/rpc"
	"github.com/chronodrachma/chrd/pkg/wallet"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runNode(os.Args[2:])
	case "wallet":
		runWallet(os.Args[2:])
	case "balance":
		runBalance(os.Args[2:])
	case "send":
		runSend(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  chrd run --p2p <addr> --http <addr> --peers <addr,addr,...> --workers <n>")
	fmt.Println("  chrd wallet --file <wallet.dat>")
	fmt.Println("  chrd balance --rpc <url> --addr <hex>")
	fmt.Println("  chrd send --rpc <url> --key <wallet.dat> --to <hex> --value <uint32>")
}

func runNode(args []string) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	p2pAddr := fs.String("p2p", ":9000", "P2P bind address")
	httpAddr := fs.String("http", ":8080", "HTTP control-surface bind address")
	peers := fs.String("peers", "", "comma-separated initial peer addresses")
	workers := fs.Int("workers", config.DefaultNetworkWorkers, "network worker pool size")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	var seeds []string
	if *peers != "" {
		seeds = strings.Split(*peers, ",")
	}

	log.Printf("chrd: starting node (p2p=%s http=%s workers=%d)", *p2pAddr, *httpAddr, *workers)

	chain, err := chainstore.New(config.DifficultyTarget)
	if err != nil {
		log.Printf("chrd: failed to open chain store: %v", err)
		os.Exit(1)
	}
	defer chain.Close()

	blockState, err := chainstore.NewBlockState()
	if err != nil {
		log.Printf("chrd: failed to open block state: %v", err)
		os.Exit(1)
	}
	defer blockState.Close()

	if err := blockState.SeedGenesis(chain.Genesis(), config.ICOAddress(), config.ICOBalance); err != nil {
		log.Printf("chrd: failed to seed genesis state: %v", err)
		os.Exit(1)
	}

	pool := mempool.New()

	hasher, err := consensus.NewHasher()
	if err != nil {
		log.Printf("chrd: failed to initialize hasher: %v", err)
		os.Exit(1)
	}
	defer hasher.Close()

	p2pConfig := p2p.ServerConfig{
		ListenAddr: *p2pAddr,
		SeedNodes:  seeds,
		Workers:    *workers,
	}
	network := p2p.NewServer(p2pConfig, chain, blockState, pool)
	if err := network.Start(); err != nil {
		log.Printf("chrd: failed to start p2p server: %v", err)
		os.Exit(1)
	}
	defer network.Stop()

	m := miner.New(chain, blockState, pool, hasher, config.DefaultBlockSizeLimit)
	go m.Run()
	defer func() {
		m.Control() <- miner.ControlMessage{Signal: miner.ControlExit}
		m.Wait()
	}()

	commitWorker := miner.NewWorker(m, chain, network)
	go commitWorker.Run()

	_, genKey, err := wallet.GenerateKeyPair()
	if err != nil {
		log.Printf("chrd: failed to generate generator keypair: %v", err)
		os.Exit(1)
	}
	genAddr := types.AddressFromPublicKey(genKey.Public().(ed25519.PublicKey))
	genReceivers := make([]types.Address, config.GeneratorReceiverCount)
	for i := range genReceivers {
		_, rk, err := wallet.GenerateKeyPair()
		if err != nil {
			log.Printf("chrd: failed to generate receiver keypair: %v", err)
			os.Exit(1)
		}
		genReceivers[i] = types.AddressFromPublicKey(rk.Public().(ed25519.PublicKey))
	}
	gen := generator.New(chain, blockState, pool, network, genAddr, genKey, genReceivers)

	rpcServer := rpc.NewServer(chain, blockState, pool, m, gen, network)
	go func() {
		if err := rpcServer.Start(*httpAddr); err != nil {
			log.Printf("chrd: rpc server stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Println("chrd: shutting down")
}

func runWallet(args []string) {
	fs := flag.NewFlagSet("wallet", flag.ContinueOnError)
	file := fs.String("file", "wallet.dat", "file to save the generated key to")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	pub, priv, err := wallet.GenerateKeyPair()
	if err != nil {
		log.Fatalf("chrd: failed to generate keypair: %v", err)
	}
	if err := wallet.SaveKey(*file, priv); err != nil {
		log.Fatalf("chrd: failed to save key: %v", err)
	}
	fmt.Printf("private key saved to %s\n", *file)
	fmt.Printf("address: %s\n", wallet.PubKeyToAddress(pub).Hex())
}

func runBalance(args []string) {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	rpcURL := fs.String("rpc", "http://localhost:8080", "node HTTP control-surface URL")
	addrHex := fs.String("addr", "", "account address (hex)")
	block := fs.Uint64("block", 0, "height on the longest chain to query")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *addrHex == "" {
		fmt.Println("error: --addr is required")
		os.Exit(1)
	}

	resp, err := http.Get(fmt.Sprintf("%s/blockchain/state?block=%d", *rpcURL, *block))
	if err != nil {
		log.Fatalf("chrd: rpc error: %v", err)
	}
	defer resp.Body.Close()

	var entries []string
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		log.Fatalf("chrd: failed to decode response: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e, *addrHex) {
			fmt.Println(e)
			return
		}
	}
	fmt.Printf("(%s, 0, 0)\n", *addrHex)
}

func runSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	rpcURL := fs.String("rpc", "http://localhost:8080", "node HTTP control-surface URL")
	keyFile := fs.String("key", "wallet.dat", "private key file")
	toHex := fs.String("to", "", "recipient address (hex)")
	value := fs.Uint("value", 0, "amount to send")
	nonce := fs.Uint("nonce", 1, "transaction nonce (sender's current nonce + 1)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *toHex == "" || *value == 0 {
		fmt.Println("error: --to and --value are required")
		os.Exit(1)
	}

	priv, err := wallet.LoadKey(*keyFile)
	if err != nil {
		log.Fatalf("chrd: failed to load key: %v", err)
	}
	pub := priv.Public().(ed25519.PublicKey)
	from := wallet.PubKeyToAddress(pub)

	to, err := types.AddressFromHex(*toHex)
	if err != nil {
		log.Fatalf("chrd: invalid recipient address: %v", err)
	}

	tx := types.Transaction{
		Sender:   from,
		Receiver: to,
		Value:    types.Amount(*value),
		Nonce:    uint32(*nonce),
	}
	st, err := wallet.SignTransaction(tx, priv)
	if err != nil {
		log.Fatalf("chrd: failed to sign transaction: %v", err)
	}

	body, err := json.Marshal(st)
	if err != nil {
		log.Fatalf("chrd: failed to encode transaction: %v", err)
	}
	resp, err := http.Post(fmt.Sprintf("%s/tx/submit", *rpcURL), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("chrd: rpc error: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	fmt.Println(string(out))
}
