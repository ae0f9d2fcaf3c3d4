package main

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		bootLog := NewLogger(zerolog.InfoLevel, "console")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if !cfg.DotEnvLoaded {
		log.Info().Msg("No .env file found, using environment variables")
	}

	etherscanAPIs, err := NewChainAPIs(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure explorer clients")
	}

	var decompiler Decompiler
	if cfg.HeimdallURL != "" {
		decompiler = &HeimdallDecompiler{
			BaseURL:    cfg.HeimdallURL,
			HTTPClient: &http.Client{Timeout: requestTimeout(cfg)},
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	storage := NewABIStorage()
	metrics := NewMetrics(registry, storage)
	fetcher := NewABIFetcher(storage, etherscanAPIs, decompiler, metrics, log)

	if cfg.LogLevel > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(fetcher, metrics, registry)

	log.Info().Str("port", cfg.Port).Int("chains", len(etherscanAPIs)).Msg("starting server")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupRouter(fetcher *ABIFetcher, metrics *Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	router.Use(cors.New(config))

	router.GET("/abi/:chainId/:address/*rpcUrl", getABI(fetcher))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}

func getABI(fetcher *ABIFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		chainID := c.Param("chainId")
		address := c.Param("address")
		rpcURL := strings.TrimPrefix(c.Param("rpcUrl"), "/")

		item, err := fetcher.FetchABI(c.Request.Context(), chainID, address, rpcURL)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				fetcher.log.Error().Err(err).Str("chainId", chainID).Str("address", address).Msg("failed to serve ABI")
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, createResponse(item))
	}
}
