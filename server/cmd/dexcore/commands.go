// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/config"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/asset"
	"decred.org/dexcore/server/asset/fungible"
	"decred.org/dexcore/server/asset/nft"
	"decred.org/dexcore/server/book"
	"decred.org/dexcore/server/stats"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	flags "github.com/jessevdk/go-flags"
)

// coreCommand is a subcommand that runs against an opened dexCore.
type coreCommand interface {
	flags.Commander
	run(core *dexCore) error
}

// errNoHandler is returned if a command is executed without the parser's
// command handler, which opens the core.
var errNoHandler = errors.New("command executed without a core")

// command provides the flags.Commander implementation for the subcommands.
// The parser's CommandHandler calls run instead.
type command struct{}

// Execute is never called by a parser with a command handler.
func (command) Execute([]string) error {
	return errNoHandler
}

// commandSpecs describes the subcommands in the order they are listed in the
// help.
var commandSpecs = []struct {
	name, short, long string
	new               func() coreCommand
}{
	{"mint", "Credit fungible tokens", "Credit an owner with an amount of a fungible token.", func() coreCommand { return new(mintCmd) }},
	{"approve", "Approve the fungible proxy", "Set the amount of an owner's token the fungible proxy may move.", func() coreCommand { return new(approveCmd) }},
	{"mintnft", "Create a non-fungible token", "Assign a new non-fungible token to an owner.", func() coreCommand { return new(mintNFTCmd) }},
	{"approvenft", "Approve the nft proxy", "Approve or revoke the nft proxy as operator of all of an owner's tokens in a collection.", func() coreCommand { return new(approveNFTCmd) }},
	{"balance", "Show holdings", "Show a fungible balance and allowance, or the owner of a non-fungible token.", func() coreCommand { return new(balanceCmd) }},
	{"seed", "Load a seed file", "Mint the balances and tokens listed in an ini seed file.", func() coreCommand { return new(seedCmd) }},
	{"create", "Create an order", "Create an order offering the ask asset for the bid asset.", func() coreCommand { return new(createCmd) }},
	{"fill", "Fill an order", "Fill a single order, optionally creating an order for the overfill.", func() coreCommand { return new(fillCmd) }},
	{"sweep", "Fill several orders", "Fill several orders of a pair from a shared budget, optionally creating an order for the overfill.", func() coreCommand { return new(sweepCmd) }},
	{"cancel", "Cancel an order", "Cancel an open order.", func() coreCommand { return new(cancelCmd) }},
	{"order", "Show an order", "Show an order.", func() coreCommand { return new(orderCmd) }},
	{"orders", "List orders", "List a pair's orders.", func() coreCommand { return new(ordersCmd) }},
	{"fills", "List fills", "List a pair's fills.", func() coreCommand { return new(fillsCmd) }},
	{"quotes", "Show candles", "Show a pair's candles over a time range.", func() coreCommand { return new(quotesCmd) }},
	{"price", "Show the best price", "Show a pair's best price and trading summary.", func() coreCommand { return new(priceCmd) }},
	{"proxies", "List asset proxies", "List the loaded asset proxies.", func() coreCommand { return new(proxiesCmd) }},
	{"backup", "Back up the database", "Copy the database to the backup directory.", func() coreCommand { return new(backupCmd) }},
}

// addCommands registers the subcommands with the parser.
func addCommands(parser *flags.Parser) error {
	for _, spec := range commandSpecs {
		if _, err := parser.AddCommand(spec.name, spec.short, spec.long, spec.new()); err != nil {
			return fmt.Errorf("error adding command %s: %w", spec.name, err)
		}
	}
	return nil
}

func parseAddress(name, s string) (dex.Address, error) {
	addr, err := dex.ParseAddress(s)
	if err != nil {
		return addr, fmt.Errorf("invalid %s: %w", name, err)
	}
	return addr, nil
}

// parseOptionalAddress parses an address that may be left empty.
func parseOptionalAddress(name, s string) (dex.Address, error) {
	if s == "" {
		return dex.ZeroAddress, nil
	}
	return parseAddress(name, s)
}

func parseAmount(name, s string) (uint256.Int, error) {
	if s == "" {
		return uint256.Int{}, nil
	}
	amt, err := dex.ParseAmount(s)
	if err != nil {
		return amt, fmt.Errorf("invalid %s: %w", name, err)
	}
	return amt, nil
}

// parseProxyID parses a proxy driver name or a hex proxy id.
func parseProxyID(s string) (dex.ProxyID, error) {
	switch strings.ToLower(s) {
	case "fungible", "":
		return dex.FungibleProxyID, nil
	case "nft":
		return dex.NonFungibleProxyID, nil
	}
	return dex.ParseProxyID(s)
}

func parseData(name, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return b, nil
}

func parseStamp(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

type pairOpts struct {
	Ask string `long:"ask" required:"true" description:"The pair's ask asset address"`
	Bid string `long:"bid" required:"true" description:"The pair's bid asset address"`
}

func (o *pairOpts) pair() (order.Pair, error) {
	ask, err := parseAddress("ask asset", o.Ask)
	if err != nil {
		return order.Pair{}, err
	}
	bid, err := parseAddress("bid asset", o.Bid)
	if err != nil {
		return order.Pair{}, err
	}
	return order.Pair{Ask: ask, Bid: bid}, nil
}

type mintCmd struct {
	command
	Token  string `long:"token" required:"true" description:"The token address"`
	Owner  string `long:"owner" required:"true" description:"The credited owner"`
	Amount string `long:"amount" required:"true" description:"The amount to credit"`
}

func (c *mintCmd) run(core *dexCore) error {
	fung, err := core.fungibleProxy()
	if err != nil {
		return err
	}
	token, err := parseAddress("token", c.Token)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", c.Owner)
	if err != nil {
		return err
	}
	amt, err := parseAmount("amount", c.Amount)
	if err != nil {
		return err
	}
	if err := fung.Mint(token, owner, &amt); err != nil {
		return err
	}
	log.Infof("Minted %s of token %s to %s", amt.Dec(), token, owner)
	return writeBalance(core, fung, token, owner)
}

func writeBalance(core *dexCore, fung *fungible.Proxy, token, owner dex.Address) error {
	bal, err := fung.BalanceOf(token, owner)
	if err != nil {
		return err
	}
	allowance, err := fung.Allowance(token, owner, fungible.ProxyAddress)
	if err != nil {
		return err
	}
	return core.write(&balanceView{
		Token:     token.Hex(),
		Owner:     owner.Hex(),
		Balance:   bal.Dec(),
		Allowance: allowance.Dec(),
	})
}

type approveCmd struct {
	command
	Token  string `long:"token" required:"true" description:"The token address"`
	Owner  string `long:"owner" required:"true" description:"The approving owner"`
	Amount string `long:"amount" required:"true" description:"The amount the proxy may move"`
}

func (c *approveCmd) run(core *dexCore) error {
	fung, err := core.fungibleProxy()
	if err != nil {
		return err
	}
	token, err := parseAddress("token", c.Token)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", c.Owner)
	if err != nil {
		return err
	}
	// Zero resets the allowance.
	var amt uint256.Int
	if c.Amount != "0" {
		if amt, err = parseAmount("amount", c.Amount); err != nil {
			return err
		}
	}
	if err := fung.Approve(token, owner, fungible.ProxyAddress, &amt); err != nil {
		return err
	}
	return writeBalance(core, fung, token, owner)
}

type mintNFTCmd struct {
	command
	Collection string `long:"collection" required:"true" description:"The collection address"`
	ID         string `long:"id" required:"true" description:"The hex token id"`
	Owner      string `long:"owner" required:"true" description:"The token's owner"`
}

func (c *mintNFTCmd) run(core *dexCore) error {
	nfts, err := core.nftProxy()
	if err != nil {
		return err
	}
	coll, err := parseAddress("collection", c.Collection)
	if err != nil {
		return err
	}
	id, err := dex.ParseTokenID(c.ID)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", c.Owner)
	if err != nil {
		return err
	}
	if err := nfts.Mint(coll, id, owner); err != nil {
		return err
	}
	return writeToken(core, nfts, coll, id, owner)
}

func writeToken(core *dexCore, nfts *nft.Proxy, coll dex.Address, id dex.TokenID, holder dex.Address) error {
	owner, err := nfts.OwnerOf(coll, id)
	if err != nil {
		return err
	}
	if holder == dex.ZeroAddress {
		holder = owner
	}
	var approved bool
	err = core.ledger.View(func(tx asset.LedgerTx) error {
		approved, err = tx.IsApprovedForAll(coll, holder, nft.ProxyAddress)
		return err
	})
	if err != nil {
		return err
	}
	return core.write(&tokenView{
		Collection: coll.Hex(),
		ID:         id.String(),
		Owner:      owner.Hex(),
		Approved:   approved,
	})
}

type approveNFTCmd struct {
	command
	Collection string `long:"collection" required:"true" description:"The collection address"`
	Owner      string `long:"owner" required:"true" description:"The approving owner"`
	Revoke     bool   `long:"revoke" description:"Revoke the approval instead"`
}

func (c *approveNFTCmd) run(core *dexCore) error {
	nfts, err := core.nftProxy()
	if err != nil {
		return err
	}
	coll, err := parseAddress("collection", c.Collection)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", c.Owner)
	if err != nil {
		return err
	}
	if err := nfts.SetApprovalForAll(coll, owner, nft.ProxyAddress, !c.Revoke); err != nil {
		return err
	}
	return core.write(map[string]any{
		"collection": coll.Hex(),
		"owner":      owner.Hex(),
		"approved":   !c.Revoke,
	})
}

type balanceCmd struct {
	command
	Token      string `long:"token" description:"The fungible token address"`
	Owner      string `long:"owner" description:"The owner, required with --token"`
	Collection string `long:"collection" description:"The non-fungible collection address"`
	ID         string `long:"id" description:"The hex token id, required with --collection"`
}

func (c *balanceCmd) run(core *dexCore) error {
	switch {
	case c.Token != "" && c.Collection != "":
		return errors.New("specify either --token or --collection")
	case c.Token != "":
		fung, err := core.fungibleProxy()
		if err != nil {
			return err
		}
		token, err := parseAddress("token", c.Token)
		if err != nil {
			return err
		}
		owner, err := parseAddress("owner", c.Owner)
		if err != nil {
			return err
		}
		return writeBalance(core, fung, token, owner)
	case c.Collection != "":
		nfts, err := core.nftProxy()
		if err != nil {
			return err
		}
		coll, err := parseAddress("collection", c.Collection)
		if err != nil {
			return err
		}
		id, err := dex.ParseTokenID(c.ID)
		if err != nil {
			return err
		}
		return writeToken(core, nfts, coll, id, dex.ZeroAddress)
	}
	return errors.New("specify --token or --collection")
}

type seedCmd struct {
	command
	Args struct {
		Path string `positional-arg-name:"seedfile"`
	} `positional-args:"yes" required:"yes"`
}

func (c *seedCmd) run(core *dexCore) error {
	seed, err := config.LoadSeed(cleanAndExpandPath(c.Args.Path))
	if err != nil {
		return fmt.Errorf("error loading seed file: %w", err)
	}
	if len(seed.Balances) > 0 {
		fung, err := core.fungibleProxy()
		if err != nil {
			return err
		}
		for _, bal := range seed.Balances {
			if err := fung.Mint(bal.Token, bal.Owner, &bal.Amount); err != nil {
				return fmt.Errorf("error minting %s of %s to %s: %w", bal.Amount.Dec(), bal.Token, bal.Owner, err)
			}
		}
	}
	if len(seed.Ownerships) > 0 {
		nfts, err := core.nftProxy()
		if err != nil {
			return err
		}
		for _, own := range seed.Ownerships {
			if err := nfts.Mint(own.Collection, own.ID, own.Owner); err != nil {
				return fmt.Errorf("error minting token %s of %s: %w", own.ID, own.Collection, err)
			}
		}
	}
	log.Infof("Seeded %d balances and %d tokens", len(seed.Balances), len(seed.Ownerships))
	return core.write(&seedView{Balances: len(seed.Balances), Ownerships: len(seed.Ownerships)})
}

type createCmd struct {
	command
	pairOpts
	Maker     string `long:"maker" required:"true" description:"The order's maker"`
	AskProxy  string `long:"askproxy" description:"The ask asset proxy, fungible, nft or a hex proxy id" default:"fungible"`
	AskAmount string `long:"askamount" description:"The ask amount"`
	AskData   string `long:"askdata" description:"Hex ask asset data, e.g. an nft token id"`
	BidProxy  string `long:"bidproxy" description:"The bid asset proxy, fungible, nft or a hex proxy id" default:"fungible"`
	BidAmount string `long:"bidamount" description:"The bid amount"`
	BidData   string `long:"biddata" description:"Hex bid asset data, e.g. an nft token id"`
	Fee       string `long:"fee" description:"The fee amount"`
}

func (c *createCmd) params() (*book.OrderParams, error) {
	pair, err := c.pair()
	if err != nil {
		return nil, err
	}
	p := &book.OrderParams{Pair: pair}
	if p.Maker, err = parseAddress("maker", c.Maker); err != nil {
		return nil, err
	}
	if p.AskProxyID, err = parseProxyID(c.AskProxy); err != nil {
		return nil, err
	}
	if p.BidProxyID, err = parseProxyID(c.BidProxy); err != nil {
		return nil, err
	}
	if p.AskAmount, err = parseAmount("ask amount", c.AskAmount); err != nil {
		return nil, err
	}
	if p.BidAmount, err = parseAmount("bid amount", c.BidAmount); err != nil {
		return nil, err
	}
	if p.AskData, err = parseData("ask data", c.AskData); err != nil {
		return nil, err
	}
	if p.BidData, err = parseData("bid data", c.BidData); err != nil {
		return nil, err
	}
	if p.FeeAmount, err = parseAmount("fee", c.Fee); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *createCmd) run(core *dexCore) error {
	p, err := c.params()
	if err != nil {
		return err
	}
	ord, err := core.book.CreateOrder(p)
	if err != nil {
		return err
	}
	if err := core.archiveErr(); err != nil {
		return err
	}
	return core.write(newOrderView(ord))
}

type fillCmd struct {
	command
	pairOpts
	Nonce  uint64 `long:"nonce" required:"true" description:"The order's nonce"`
	Taker  string `long:"taker" required:"true" description:"The taker"`
	Amount string `long:"amount" required:"true" description:"The bid amount to pay"`
	Fee    string `long:"fee" description:"The fee amount"`
	Create bool   `long:"create" description:"Create an order on the reversed pair for any overfill"`
}

func (c *fillCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	p := &book.FillParams{Pair: pair, Nonce: c.Nonce}
	if p.Taker, err = parseAddress("taker", c.Taker); err != nil {
		return err
	}
	if p.Amount, err = parseAmount("amount", c.Amount); err != nil {
		return err
	}
	if p.FeeAmount, err = parseAmount("fee", c.Fee); err != nil {
		return err
	}
	var res *book.FillResult
	if c.Create {
		res, err = core.book.FillAndCreateOrder(p)
	} else {
		res, err = core.book.FillOrder(p)
	}
	if err != nil {
		return err
	}
	if err := core.archiveErr(); err != nil {
		return err
	}
	return core.write(&fillResultView{
		Fills:   newFillViews([]*order.Fill{res.Fill}),
		Orders:  newOrderViews([]*order.Order{res.Order}),
		Spent:   res.Fill.BidFilled.Dec(),
		Created: newOrderView(res.Created),
	})
}

type sweepCmd struct {
	command
	pairOpts
	Nonces []uint64 `long:"nonce" required:"true" description:"An order nonce. Repeat for each order, in fill order."`
	Taker  string   `long:"taker" required:"true" description:"The taker"`
	Amount string   `long:"amount" required:"true" description:"The total bid amount budget"`
	Fee    string   `long:"fee" description:"The fee amount"`
	Create bool     `long:"create" description:"Create an order on the reversed pair for any overfill"`
}

func (c *sweepCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	p := &book.SweepParams{Pair: pair, Nonces: c.Nonces}
	if p.Taker, err = parseAddress("taker", c.Taker); err != nil {
		return err
	}
	if p.Amount, err = parseAmount("amount", c.Amount); err != nil {
		return err
	}
	if p.FeeAmount, err = parseAmount("fee", c.Fee); err != nil {
		return err
	}
	var res *book.SweepResult
	if c.Create {
		res, err = core.book.FillAndCreateOrders(p)
	} else {
		res, err = core.book.FillOrders(p)
	}
	if err != nil {
		return err
	}
	if err := core.archiveErr(); err != nil {
		return err
	}
	return core.write(&fillResultView{
		Fills:   newFillViews(res.Fills),
		Orders:  newOrderViews(res.Orders),
		Spent:   res.Spent.Dec(),
		Created: newOrderView(res.Created),
	})
}

type cancelCmd struct {
	command
	pairOpts
	Nonce uint64 `long:"nonce" required:"true" description:"The order's nonce"`
	Maker string `long:"maker" required:"true" description:"The order's maker"`
}

func (c *cancelCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	maker, err := parseAddress("maker", c.Maker)
	if err != nil {
		return err
	}
	ord, err := core.book.CancelOrder(pair, c.Nonce, maker)
	if err != nil {
		return err
	}
	if err := core.archiveErr(); err != nil {
		return err
	}
	return core.write(newOrderView(ord))
}

type orderCmd struct {
	command
	pairOpts
	Nonce uint64 `long:"nonce" required:"true" description:"The order's nonce"`
}

func (c *orderCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	return core.write(newOrderView(core.book.Order(pair, c.Nonce)))
}

type ordersCmd struct {
	command
	pairOpts
	Status string `long:"status" description:"Only orders with the status {open, filled, cancelled}"`
	Maker  string `long:"maker" description:"Only orders of the maker"`
	From   int64  `long:"from" description:"Only orders created at or after this unix time"`
	To     int64  `long:"to" description:"Only orders created at or before this unix time"`
}

func (c *ordersCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	filter := &book.OrderFilter{From: parseStamp(c.From), To: parseStamp(c.To)}
	if filter.Status, err = order.ParseStatus(c.Status); err != nil {
		return err
	}
	if filter.Maker, err = parseOptionalAddress("maker", c.Maker); err != nil {
		return err
	}
	return core.write(newOrderViews(core.book.Orders(pair, filter)))
}

type fillsCmd struct {
	command
	pairOpts
	Taker string `long:"taker" description:"Only fills by the taker"`
	From  int64  `long:"from" description:"Only fills at or after this unix time"`
	To    int64  `long:"to" description:"Only fills at or before this unix time"`
}

func (c *fillsCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	filter := &book.FillFilter{From: parseStamp(c.From), To: parseStamp(c.To)}
	if filter.Taker, err = parseOptionalAddress("taker", c.Taker); err != nil {
		return err
	}
	return core.write(newFillViews(core.book.Fills(pair, filter)))
}

type quotesCmd struct {
	command
	pairOpts
	From       int64 `long:"from" description:"Range start unix time, default one hour before the end"`
	To         int64 `long:"to" description:"Exclusive range end unix time, default now"`
	Resolution int64 `long:"resolution" description:"Candle duration in seconds, a multiple of 60" default:"60"`
}

func (c *quotesCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	cs, err := core.stats.Quotes(pair, &stats.QuoteRequest{
		From:       parseStamp(c.From),
		To:         parseStamp(c.To),
		Resolution: c.Resolution,
	})
	if err != nil {
		return err
	}
	return core.write(newCandleViews(cs))
}

type priceCmd struct {
	command
	pairOpts
}

func (c *priceCmd) run(core *dexCore) error {
	pair, err := c.pair()
	if err != nil {
		return err
	}
	ask, bid, ok := core.book.BestPrice(pair)
	summary := core.stats.Summary(pair)
	pv := &priceView{
		Pair:      pair.String(),
		Present:   ok,
		AskAmount: ask.Dec(),
		BidAmount: bid.Dec(),
		Summary:   newSummaryView(&summary),
	}
	if ok {
		rate := dex.Rate(&ask, &bid)
		pv.Rate = rate.Dec()
		if nonce, found := core.book.BestOrder(pair); found {
			pv.Nonce = &nonce
		}
	}
	return core.write(pv)
}

type proxiesCmd struct {
	command
}

func (c *proxiesCmd) run(core *dexCore) error {
	ids := core.proxies.IDs()
	views := make([]*proxyView, 0, len(ids))
	for _, id := range ids {
		views = append(views, &proxyView{
			ID:      id.String(),
			Address: core.proxies.ProxyOf(id).Address().Hex(),
		})
	}
	return core.write(views)
}

type backupCmd struct {
	command
}

func (c *backupCmd) run(core *dexCore) error {
	paths := make(map[string]string, 2)
	if b, ok := core.archive.(backuper); ok {
		path, err := b.Backup()
		if err != nil {
			return err
		}
		log.Infof("Database backed up to %s", path)
		paths["path"] = path
	}
	if core.ledgerDB != nil {
		path, err := core.ledgerDB.Backup()
		if err != nil {
			return err
		}
		log.Infof("Ledger backed up to %s", path)
		paths["ledger"] = path
	}
	if len(paths) == 0 {
		return errors.New("no database to back up")
	}
	return core.write(paths)
}
