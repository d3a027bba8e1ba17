package prompts

// DefaultCritiquePrompt asks for a critique of a single function or class.
var DefaultCritiquePrompt = NewPromptTemplate(
	`[INST] <<SYS>>
You are a seasoned Software Refactoring Critic. Your job is to identify all code smells, anti-patterns, and design inefficiencies, and provide actionable, high-quality suggestions that align with modern software engineering best practices.
<</SYS>>

--- CONTEXT ---
- **File**: {{.file}}
- **Entity Type**: {{.type}}
- **Entity Name**: {{.name}}
- **Line Count**: {{.line_count}}
- **Cyclomatic Complexity**: {{.cyclomatic_complexity}}
- **Nesting Depth**: {{.nesting_depth}}
- **Has Docstring**: {{.has_docstring}}
- **Magic Numbers**: {{.magic_numbers}}
- **Dependencies**: {{.dependencies}}
- **Imports**: {{.imports}}

--- SOURCE CODE ---
{{.code}}

--- TASK INSTRUCTIONS ---
Carefully review the code and answer the following:
1. **Code Smells**: Identify and explain all present code smells (e.g., long method, large class, magic numbers, deep nesting, data clumps, low cohesion, high coupling).
2. **Refactoring Opportunities**: Point out design flaws and suggest clear, specific refactorings (e.g., extract method/class, reduce nesting, improve naming, decouple responsibilities).
3. **Documentation & Style**: Comment on the presence and quality of docstrings, comments, naming conventions, and adherence to style guides.
4. **Maintainability**: Evaluate how maintainable, readable, and testable the code is. Propose ways to improve it.
5. **Summary Recommendation**: Conclude with an overall refactoring priority (low/medium/high) and a rationale.

Respond in a structured and concise format with bullet points where helpful.
[/INST]
`)

// DefaultFileCritiquePrompt asks for a critique of a whole source file,
// covering both its entities and its overall structure.
var DefaultFileCritiquePrompt = NewPromptTemplate(
	`[INST] <<SYS>>
You are a seasoned software critic and refactoring expert.
Your task is to analyze an **entire source file**.
Detect both **entity-level issues** (functions/classes) and **file-level issues** (overall design, cohesion, structure).
Focus on code smells and **refactoring opportunities** that improve maintainability.
<</SYS>>

--- FILE CONTEXT ---
- File: {{.file}}
- Total Entities: {{.entity_count}}
- Total Lines: {{.total_lines}}
- Imports: {{.all_imports}}
- Dependencies: {{.all_dependencies}}

--- ENTITY METRICS ---
{{.entity_metrics}}

--- FULL SOURCE CODE ---
{{.all_code}}

--- TASK ---
1. **Entity-Level Analysis (Local)**
   For each function/class:
   - Code smells (long methods, deep nesting, magic numbers, etc.)
   - Refactoring opportunities (extract method, better naming, simplify logic, reduce duplication)
   - Documentation/style issues
   - Maintainability assessment

2. **File-Level Analysis (Global)**
   For the file as a whole:
   - Cohesion and separation of concerns
   - Module/file structure
   - Imports and dependency usage
   - Refactoring opportunities (splitting file, reorganizing responsibilities, improving dependency management)
   - Cross-cutting code smells across entities

3. **Summary Recommendation**
   Conclude with a **global maintainability rating** (Low / Medium / High refactoring priority) and justify.

Return the answer in structured sections:
- **Local Analysis**
- **Global Analysis**
- **Summary Recommendation**
[/INST]
`)

// DefaultRefactorPrompt asks for a rewritten entity given its critique.
var DefaultRefactorPrompt = NewPromptTemplate(
	`[INST] <<SYS>>
You are a senior software engineer specializing in clean code and refactoring.
Take the following function/class along with its critique and produce a **refactored version**.
Make sure the new code is:
- Cleaner and more modular
- Matches Python best practices (PEP8)
- Preserves the original functionality
- Easy to maintain and test
<</SYS>>

--- CONTEXT ---
- **File**: {{.file}}
- **Entity Type**: {{.type}}
- **Entity Name**: {{.name}}
- **Original Critique**: {{.critique}}

--- ORIGINAL CODE ---
{{.code}}

--- TASK ---
Refactor this code. Only output the full improved code (no explanations).
[/INST]
`)
