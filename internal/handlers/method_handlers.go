package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rmitchellscott/ditherlab/internal/dither"
)

// GetMethodsHandler lists the dithering methods and parameter domains
// UI clients need to build settings forms.
func GetMethodsHandler(c *gin.Context) {
	methods := make([]gin.H, 0, len(dither.Methods()))
	for _, m := range dither.Methods() {
		methods = append(methods, gin.H{
			"id":       m,
			"label":    m.Label(),
			"diffuses": m.Diffuses(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"methods":  methods,
		"defaults": dither.Default(),
		"parameters": gin.H{
			"threshold":  gin.H{"min": 0, "max": 255},
			"pixel_size": gin.H{"min": 1},
			"contrast":   gin.H{"min": -100, "max": 100},
			"brightness": gin.H{"min": -100, "max": 100},
		},
	})
}
