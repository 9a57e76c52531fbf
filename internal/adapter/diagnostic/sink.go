package diagnostic

import (
	"github.com/tliron/commonlog"

	"phptdd/internal/domain"
)

var log = commonlog.GetLogger("phptdd.diagnostic")

// Failed records a failing run against the entity that declared the test.
func (s *Set) Failed(uri string, info domain.TestFunctionInfo, err error) {
	log.Infof("%s failed: %s", info.FunctionName, err)
	s.Add(uri, info.Entity, "Test "+info.FunctionName+" failed: "+err.Error())
}

// Passed clears an earlier failure.
func (s *Set) Passed(uri string, info domain.TestFunctionInfo) {
	if info.Entity == nil {
		return
	}
	s.Clear(uri, info.Entity.Identifier())
}
