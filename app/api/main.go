package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/database/mongoclient"
	"github.com/nfthaus/goapi/base/database/redisclient"
	"github.com/nfthaus/goapi/base/keylock"
	"github.com/nfthaus/goapi/base/log"
	"github.com/nfthaus/goapi/base/metrics"
	bValidator "github.com/nfthaus/goapi/base/validator"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/domain/keys"
	mmiddleware "github.com/nfthaus/goapi/middleware"
	"github.com/nfthaus/goapi/service/cache"
	"github.com/nfthaus/goapi/service/cache/provider"
	"github.com/nfthaus/goapi/service/cache/provider/compound"
	"github.com/nfthaus/goapi/service/cache/provider/primitive"
	redisprovider "github.com/nfthaus/goapi/service/cache/provider/redis"
	"github.com/nfthaus/goapi/service/query"
	"github.com/nfthaus/goapi/service/redis"
	auction_delivery "github.com/nfthaus/goapi/stores/auction/delivery/http"
	auction_repository "github.com/nfthaus/goapi/stores/auction/repository"
	auction_usecase "github.com/nfthaus/goapi/stores/auction/usecase"
	auth_delivery "github.com/nfthaus/goapi/stores/auth/delivery/http"
	auth_middleware "github.com/nfthaus/goapi/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/nfthaus/goapi/stores/auth/usecase"
	custody_repository "github.com/nfthaus/goapi/stores/custody/repository"
	event_delivery "github.com/nfthaus/goapi/stores/event/delivery/http"
	event_repository "github.com/nfthaus/goapi/stores/event/repository"
	hc_delivery "github.com/nfthaus/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/nfthaus/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/nfthaus/goapi/stores/healthcheck/usecase"
	listing_delivery "github.com/nfthaus/goapi/stores/listing/delivery/http"
	listing_repository "github.com/nfthaus/goapi/stores/listing/repository"
	listing_usecase "github.com/nfthaus/goapi/stores/listing/usecase"
	royalty_delivery "github.com/nfthaus/goapi/stores/royalty/delivery/http"
	royalty_repository "github.com/nfthaus/goapi/stores/royalty/repository"
	royalty_usecase "github.com/nfthaus/goapi/stores/royalty/usecase"
	settlement_delivery "github.com/nfthaus/goapi/stores/settlement/delivery/http"
	settlement_repository "github.com/nfthaus/goapi/stores/settlement/repository"
	settlement_usecase "github.com/nfthaus/goapi/stores/settlement/usecase"
	wallet_delivery "github.com/nfthaus/goapi/stores/wallet/delivery/http"
	wallet_repository "github.com/nfthaus/goapi/stores/wallet/repository"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init Redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	royaltyCache := cache.New(cache.ServiceConfig{
		Ttl: viper.GetDuration("royalty.cacheTtl"),
		Pfx: keys.PfxRoyalty,
		Cache: compound.NewCompound([]provider.Provider{
			primitive.NewPrimitive(keys.PfxRoyalty, 2),
			redisprovider.NewRedis(redisCache),
		}),
	})

	operator := domain.Address(viper.GetString("market.operator")).ToLower()
	treasury := domain.Address(viper.GetString("market.treasury")).ToLower()
	adminAddresses := viper.GetStringSlice("admin.addresses")
	admins := make([]domain.Address, 0, len(adminAddresses))
	for _, a := range adminAddresses {
		admins = append(admins, domain.Address(a).ToLower())
	}

	// the ledger and custody registry are process-local
	ledger := wallet_repository.NewInMemoryLedger()
	registry := custody_repository.NewInMemoryRegistry()

	// listings and auctions guard the same asset keys, so they share one lock
	assetLock := keylock.New()

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	eventRepo := event_repository.NewEventRepo(q)
	royaltyRepo := royalty_repository.NewRoyaltyRepo(q)
	receiptRepo := settlement_repository.NewReceiptRepo(q)
	feeConfigRepo := settlement_repository.NewFeeConfigRepo(q)
	listingRepo := listing_repository.NewListingRepo(q)
	offerRepo := listing_repository.NewOfferRepo(q)
	auctionRepo := auction_repository.NewAuctionRepo(q)

	hc := hc_usecase.New(hcRepo)
	royalty := royalty_usecase.New(&royalty_usecase.RoyaltyUseCaseCfg{
		RoyaltyRepo:    royaltyRepo,
		EventRepo:      eventRepo,
		AdminAddresses: admins,
		Cache:          royaltyCache,
	})
	settlement := settlement_usecase.New(&settlement_usecase.SettlementUseCaseCfg{
		ReceiptRepo:    receiptRepo,
		FeeConfigRepo:  feeConfigRepo,
		EventRepo:      eventRepo,
		RoyaltyUC:      royalty,
		Ledger:         ledger,
		Registry:       registry,
		Operator:       operator,
		Treasury:       treasury,
		AdminAddresses: admins,
	})
	listing := listing_usecase.New(&listing_usecase.ListingUseCaseCfg{
		ListingRepo:  listingRepo,
		OfferRepo:    offerRepo,
		EventRepo:    eventRepo,
		SettlementUC: settlement,
		Ledger:       ledger,
		Registry:     registry,
		Operator:     operator,
		KeyLock:      assetLock,
	})
	auction := auction_usecase.New(&auction_usecase.AuctionUseCaseCfg{
		AuctionRepo:  auctionRepo,
		EventRepo:    eventRepo,
		SettlementUC: settlement,
		Ledger:       ledger,
		Registry:     registry,
		Operator:     operator,
		KeyLock:      assetLock,
	})
	auth := auth_usecase.New(&auth_usecase.AuthUseCaseCfg{
		JwtSecret:          viper.GetString("auth.jwtSecret"),
		SigningMsgTemplate: viper.GetString("auth.signatureMsg"),
		TokenDuration:      viper.GetDuration("auth.tokenDuration"),
	})

	authMiddleware := auth_middleware.New(auth, adminAddresses)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth, viper.GetString("auth.signatureMsg"))
	listing_delivery.New(e, listing, authMiddleware)
	auction_delivery.New(e, auction, authMiddleware)
	royalty_delivery.New(e, royalty, authMiddleware)
	settlement_delivery.New(e, settlement, receiptRepo, authMiddleware)
	event_delivery.New(e, eventRepo)
	wallet_delivery.New(e, ledger, authMiddleware)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
