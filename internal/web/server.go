package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	indexRoutePathConstant          = "/"
	reportRoutePathConstant         = "/report.csv"
	startTimeChartRoutePathConstant = "/charts/v1"
	runOrderChartRoutePathConstant  = "/charts/v2"

	csvContentTypeConstant  = "text/csv"
	htmlContentTypeConstant = "text/html; charset=utf-8"

	runOrderChartMissingMessageConstant = "run-order chart not available: no ordering configuration was supplied"

	requestLogMessageConstant      = "Request handled"
	requestMethodFieldNameConstant = "method"
	requestPathFieldNameConstant   = "path"
	requestStatusFieldNameConstant = "status"
)

const indexPageTemplateConstant = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>pipeline-timings</title></head>
<body>
<h1>pipeline-timings</h1>
<ul>
<li><a href="/report.csv">workflow_report.csv</a></li>
<li><a href="/charts/v1">chart by start time</a></li>
%s
</ul>
</body>
</html>
`

const runOrderChartLinkConstant = `<li><a href="/charts/v2">chart by configured run order</a></li>`

// PortalContent holds the pre-rendered artifacts the portal serves. The
// run-order chart is optional.
type PortalContent struct {
	ReportCSV          []byte
	StartTimeChartHTML []byte
	RunOrderChartHTML  []byte
}

// NewRouter builds the gin engine serving the report portal.
func NewRouter(content PortalContent, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLoggingMiddleware(logger))

	router.GET(indexRoutePathConstant, func(requestContext *gin.Context) {
		runOrderLink := ""
		if len(content.RunOrderChartHTML) > 0 {
			runOrderLink = runOrderChartLinkConstant
		}
		requestContext.Data(http.StatusOK, htmlContentTypeConstant, []byte(fmt.Sprintf(indexPageTemplateConstant, runOrderLink)))
	})

	router.GET(reportRoutePathConstant, func(requestContext *gin.Context) {
		requestContext.Data(http.StatusOK, csvContentTypeConstant, content.ReportCSV)
	})

	router.GET(startTimeChartRoutePathConstant, func(requestContext *gin.Context) {
		requestContext.Data(http.StatusOK, htmlContentTypeConstant, content.StartTimeChartHTML)
	})

	router.GET(runOrderChartRoutePathConstant, func(requestContext *gin.Context) {
		if len(content.RunOrderChartHTML) == 0 {
			requestContext.String(http.StatusNotFound, runOrderChartMissingMessageConstant)
			return
		}
		requestContext.Data(http.StatusOK, htmlContentTypeConstant, content.RunOrderChartHTML)
	})

	return router
}

func requestLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		requestContext.Next()
		logger.Info(requestLogMessageConstant,
			zap.String(requestMethodFieldNameConstant, requestContext.Request.Method),
			zap.String(requestPathFieldNameConstant, requestContext.Request.URL.Path),
			zap.Int(requestStatusFieldNameConstant, requestContext.Writer.Status()),
		)
	}
}
