package document

// Handoff document types.
const (
	TypeStandard = "standard"
	TypeQuick    = "quick"
)

// Template file names under the templates directory.
const (
	StandardTemplateFile = "handoff-template.md"
	QuickTemplateFile    = "quick-handoff.md"
)

// TemplateFile returns the template file name for a handoff type.
func TemplateFile(typ string) string {
	if typ == TypeQuick {
		return QuickTemplateFile
	}
	return StandardTemplateFile
}

// StandardTemplate is the skeleton written to templates/handoff-template.md on bootstrap.
const StandardTemplate = `# MCPaaS.dev Agent Handoff Document

**Date**: [YYYY-MM-DD]  
**Time**: [HH:MM UTC]  
**Session Duration**: [X hours]  
**Outgoing Agent**: [Agent ID/Name]  
**Incoming Agent**: [To be filled by next agent]

---

## 🎯 Project Context
**Current Focus**: [Brief description of main objective]
**Status**: [Current state of work]

## ✅ Recent Progress
- [Completed item 1]
- [Completed item 2]

## 🔄 Active Work
**Working On**: [Current primary task]  
**Status**: [How far along]  
**Next Step**: [Very specific next action]

## 🌍 Environment Status
- **Server**: ✅/⚠️/❌ [Status details]
- **Database**: ✅/⚠️/❌ [Status details]
- **Cache**: ✅/⚠️/❌ [Status details]

## ⚠️ Known Issues
- [Issue description]
- [Another issue]`

// QuickTemplate is the skeleton written to templates/quick-handoff.md on bootstrap.
const QuickTemplate = `# Quick Handoff - MCPaaS.dev

**Date**: [YYYY-MM-DD HH:MM UTC]  
**Duration**: [X minutes/hours]

---

## 🎯 Current State
**Working On**: [Current primary task]  
**Status**: [How far along]  
**Next Step**: [Very specific next action]

## ✅ Just Completed
1. [Most recent accomplishment]
2. [Another recent accomplishment]

## 🔥 Immediate Priorities
1. [Critical task 1]
2. [Critical task 2]

## 🌍 Environment Status
- **Server**: ✅/⚠️/❌ [Status]
- **Database**: ✅/⚠️/❌ [Status]
- **Cache**: ✅/⚠️/❌ [Status]`
